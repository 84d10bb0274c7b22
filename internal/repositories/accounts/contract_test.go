package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(username string) *models.Account {
	return &models.Account{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: "hash-" + username,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

// runContract exercises behaviour every Repository implementation shares.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		r := newRepo(t)
		in := newAccount("alice")

		_, err := r.Create(ctx, in)
		require.NoError(t, err)

		got, err := r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, in.ID, got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "hash-alice", got.CredentialHash)
		assert.False(t, got.LoggedIn)
		assert.Empty(t, got.SessionID)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, newAccount("alice"))
		require.NoError(t, err)

		_, err = r.Create(ctx, newAccount("alice"))
		assert.ErrorIs(t, err, common.ErrorConflict)
	})

	t.Run("get missing", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.GetByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("sessions start once and end", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, newAccount("alice"))
		require.NoError(t, err)

		require.NoError(t, r.StartSession(ctx, "alice", "s-1"))
		got, err := r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.LoggedIn)
		assert.Equal(t, "s-1", got.SessionID)

		assert.ErrorIs(t, r.StartSession(ctx, "alice", "s-2"), common.ErrorConflict)
		got, err = r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "s-1", got.SessionID)

		require.NoError(t, r.EndSession(ctx, "alice"))
		got, err = r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, got.LoggedIn)
		assert.Empty(t, got.SessionID)

		require.NoError(t, r.StartSession(ctx, "alice", "s-3"))

		assert.ErrorIs(t, r.StartSession(ctx, "ghost", "s-4"), common.ErrorNotFound)
		assert.ErrorIs(t, r.EndSession(ctx, "ghost"), common.ErrorNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, newAccount("alice"))
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, "alice"))
		_, err = r.GetByUsername(ctx, "alice")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		assert.ErrorIs(t, r.Delete(ctx, "alice"), common.ErrorNotFound)
	})

	t.Run("list sorted and count", func(t *testing.T) {
		r := newRepo(t)

		names, err := r.ListUsernames(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		for _, u := range []string{"carol", "alice", "bob"} {
			_, err := r.Create(ctx, newAccount(u))
			require.NoError(t, err)
		}

		names, err = r.ListUsernames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol"}, names)

		n, err := r.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}
