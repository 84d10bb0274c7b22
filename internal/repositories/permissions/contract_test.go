package permissions

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create, names in order", func(t *testing.T) {
		r := newRepo(t)
		for _, n := range []string{"delete entries", "add a new entry", "manage permissions"} {
			require.NoError(t, r.Create(ctx, n))
		}

		names, err := r.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"delete entries", "add a new entry", "manage permissions"}, names)
	})

	t.Run("duplicate conflicts", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, "view"))
		assert.ErrorIs(t, r.Create(ctx, "view"), common.ErrorConflict)
	})

	t.Run("grant is idempotent", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, "view"))

		require.NoError(t, r.Grant(ctx, "view", "bob"))
		require.NoError(t, r.Grant(ctx, "view", "bob"))
		require.NoError(t, r.Grant(ctx, "view", "alice"))

		p, err := r.Get(ctx, "view")
		require.NoError(t, err)
		assert.Equal(t, "view", p.Name)
		assert.Equal(t, []string{"alice", "bob"}, p.Grantees)

		held, err := r.IsGranted(ctx, "view", "bob")
		require.NoError(t, err)
		assert.True(t, held)

		held, err = r.IsGranted(ctx, "view", "carol")
		require.NoError(t, err)
		assert.False(t, held)
	})

	t.Run("unknown permission", func(t *testing.T) {
		r := newRepo(t)

		assert.ErrorIs(t, r.Grant(ctx, "fly", "bob"), common.ErrorNotFound)

		_, err := r.Revoke(ctx, "fly", "bob")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = r.IsGranted(ctx, "fly", "bob")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = r.Get(ctx, "fly")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("revoke reports whether held", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Create(ctx, "view"))

		removed, err := r.Revoke(ctx, "view", "bob")
		require.NoError(t, err)
		assert.False(t, removed)

		require.NoError(t, r.Grant(ctx, "view", "bob"))
		removed, err = r.Revoke(ctx, "view", "bob")
		require.NoError(t, err)
		assert.True(t, removed)

		held, err := r.IsGranted(ctx, "view", "bob")
		require.NoError(t, err)
		assert.False(t, held)
	})

	t.Run("granted to and revoke all", func(t *testing.T) {
		r := newRepo(t)
		for _, n := range []string{"b", "a", "c"} {
			require.NoError(t, r.Create(ctx, n))
		}
		require.NoError(t, r.Grant(ctx, "c", "bob"))
		require.NoError(t, r.Grant(ctx, "b", "bob"))
		require.NoError(t, r.Grant(ctx, "a", "alice"))

		names, err := r.GrantedTo(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, names)

		names, err = r.GrantedTo(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, names)

		n, err := r.RevokeAll(ctx, "bob")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		names, err = r.GrantedTo(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, names)

		names, err = r.GrantedTo(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, names)
	})
}
