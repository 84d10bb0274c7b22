package authn

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/cryptox"
	"github.com/dmitrijs2005/realty/internal/logging"
	"github.com/dmitrijs2005/realty/internal/models"
	"github.com/dmitrijs2005/realty/internal/repositories/accounts"
	"github.com/dmitrijs2005/realty/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthenticator(t *testing.T) (*Authenticator, *accounts.MemoryRepository) {
	t.Helper()
	repo := accounts.NewMemoryRepository()
	return NewAuthenticator(repo, cryptox.SHA256Hasher{}, logging.NewDiscard()), repo
}

func logIn(ctx context.Context, a *Authenticator, username, password string) error {
	_, err := a.LogIn(ctx, username, password)
	return err
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "ok", username: "alice", password: "secret1"},
		{name: "exactly six", username: "bob", password: "123456"},
		{name: "six runes", username: "carol", password: "пароль"},
		{name: "too short", username: "dave", password: "12345", wantErr: common.ErrPasswordTooShort},
		{name: "empty", username: "erin", password: "", wantErr: common.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newAuthenticator(t)
			err := a.AddUser(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				exists, _ := a.UserExists(ctx, tt.username)
				assert.False(t, exists)
				return
			}
			require.NoError(t, err)
			assert.False(t, a.IsLoggedIn(ctx, tt.username))
		})
	}
}

func TestAddUser_StoresDigestOnly(t *testing.T) {
	a, repo := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	acc, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	want, _ := cryptox.SHA256Hasher{}.Hash("secret1")
	assert.Equal(t, want, acc.CredentialHash)
	assert.NotEmpty(t, acc.ID)
	assert.False(t, acc.CreatedAt.IsZero())
}

func TestAddUser_Duplicate(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	err := a.AddUser(ctx, "alice", "another-password")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "alice")
}

func TestLogIn(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	assert.ErrorIs(t, logIn(ctx, a, "ghost", "secret1"), common.ErrDoesNotExist)

	assert.ErrorIs(t, logIn(ctx, a, "alice", "wrong-pass"), common.ErrInvalidPassword)
	assert.False(t, a.IsLoggedIn(ctx, "alice"))

	require.NoError(t, logIn(ctx, a, "alice", "secret1"))
	assert.True(t, a.IsLoggedIn(ctx, "alice"))

	assert.ErrorIs(t, logIn(ctx, a, "alice", "secret1"), common.ErrAlreadyLoggedIn)
	// the session flag is checked before the password
	assert.ErrorIs(t, logIn(ctx, a, "alice", "wrong-pass"), common.ErrAlreadyLoggedIn)
}

func TestLogIn_ConcurrentOnlyOneWins(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- logIn(ctx, a, "alice", "secret1")
		}()
	}
	wg.Wait()
	close(errs)

	var ok, already int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrAlreadyLoggedIn):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, already)
}

func TestLogOut(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	assert.ErrorIs(t, a.LogOut(ctx, "ghost"), common.ErrDoesNotExist)
	require.NoError(t, a.LogOut(ctx, "alice"))

	require.NoError(t, logIn(ctx, a, "alice", "secret1"))
	require.NoError(t, a.LogOut(ctx, "alice"))
	assert.False(t, a.IsLoggedIn(ctx, "alice"))
	require.NoError(t, logIn(ctx, a, "alice", "secret1"))
}

func TestLogIn_SessionIDs(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))

	first, err := a.LogIn(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, a.ValidSession(ctx, "alice", first))
	assert.False(t, a.ValidSession(ctx, "alice", ""))
	assert.False(t, a.ValidSession(ctx, "bob", first))

	require.NoError(t, a.LogOut(ctx, "alice"))
	assert.False(t, a.ValidSession(ctx, "alice", first))

	second, err := a.LogIn(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.False(t, a.ValidSession(ctx, "alice", first))
	assert.True(t, a.ValidSession(ctx, "alice", second))

	require.NoError(t, a.DelUser(ctx, "alice"))
	require.NoError(t, a.AddUser(ctx, "alice", "secret2"))
	assert.False(t, a.ValidSession(ctx, "alice", second))
}

// interleavedRepo runs afterRead once, right after the first account read,
// to let another process act between the read and the write of LogIn.
type interleavedRepo struct {
	accounts.Repository
	afterRead func()
}

func (r *interleavedRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	acc, err := r.Repository.GetByUsername(ctx, username)
	if f := r.afterRead; f != nil {
		r.afterRead = nil
		f()
	}
	return acc, err
}

func TestLogIn_ProcessesSharingSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "realty.db")

	open := func() accounts.Repository {
		m, err := repomanager.NewSQLiteRepositoryManager(ctx, path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })
		return m.Accounts()
	}

	first := NewAuthenticator(open(), cryptox.SHA256Hasher{}, logging.NewDiscard())
	racing := &interleavedRepo{Repository: open()}
	second := NewAuthenticator(racing, cryptox.SHA256Hasher{}, logging.NewDiscard())

	require.NoError(t, first.AddUser(ctx, "alice", "secret1"))

	var firstSession string
	var firstErr error
	racing.afterRead = func() {
		firstSession, firstErr = first.LogIn(ctx, "alice", "secret1")
	}

	_, err := second.LogIn(ctx, "alice", "secret1")
	require.NoError(t, firstErr)
	assert.ErrorIs(t, err, common.ErrAlreadyLoggedIn)
	assert.True(t, second.ValidSession(ctx, "alice", firstSession))
}

func TestIsLoggedIn_UnknownUser(t *testing.T) {
	a, _ := newAuthenticator(t)
	assert.False(t, a.IsLoggedIn(context.Background(), "ghost"))
}

func TestDelUser(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()
	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))
	require.NoError(t, logIn(ctx, a, "alice", "secret1"))

	require.NoError(t, a.DelUser(ctx, "alice"))
	assert.False(t, a.IsLoggedIn(ctx, "alice"))
	assert.ErrorIs(t, a.DelUser(ctx, "alice"), common.ErrDoesNotExist)

	require.NoError(t, a.AddUser(ctx, "alice", "newpass1"))
	assert.ErrorIs(t, logIn(ctx, a, "alice", "secret1"), common.ErrInvalidPassword)
}

func TestListUsersAndCount(t *testing.T) {
	a, _ := newAuthenticator(t)
	ctx := context.Background()

	users, err := a.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, u := range []string{"carol", "alice", "bob"} {
		require.NoError(t, a.AddUser(ctx, u, "secret1"))
	}

	users, err = a.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)

	n, err := a.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

type failingRepo struct {
	accounts.Repository
	err error
}

func (f failingRepo) GetByUsername(context.Context, string) (*models.Account, error) {
	return nil, f.err
}

func (f failingRepo) ListUsernames(context.Context) ([]string, error) {
	return nil, f.err
}

func TestStorageFailures(t *testing.T) {
	boom := errors.New("boom")
	a := NewAuthenticator(failingRepo{err: boom}, cryptox.SHA256Hasher{}, logging.NewDiscard())
	ctx := context.Background()

	assert.False(t, a.IsLoggedIn(ctx, "alice"))

	err := a.AddUser(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrAlreadyExists)

	_, err = a.UserExists(ctx, "alice")
	assert.ErrorIs(t, err, boom)

	_, err = a.ListUsers(ctx)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, logIn(ctx, a, "alice", "secret1"), boom)
}

func TestWorksWithArgon2(t *testing.T) {
	a := NewAuthenticator(accounts.NewMemoryRepository(), cryptox.NewArgon2Hasher(), logging.NewDiscard())
	ctx := context.Background()

	require.NoError(t, a.AddUser(ctx, "alice", "secret1"))
	assert.ErrorIs(t, logIn(ctx, a, "alice", "secret2"), common.ErrInvalidPassword)
	require.NoError(t, logIn(ctx, a, "alice", "secret1"))
}
