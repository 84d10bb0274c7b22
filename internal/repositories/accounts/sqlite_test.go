package accounts

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, migrations.SQLite))
	return db
}

func TestSQLiteRepository(t *testing.T) {
	runContract(t, func(t *testing.T) Repository { return NewSQLiteRepository(setupSQLite(t)) })
}

func openSQLiteFile(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, migrations.SQLite))
	return db
}

func TestSQLiteRepository_StartSessionAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "realty.db")

	first := NewSQLiteRepository(openSQLiteFile(t, path))
	second := NewSQLiteRepository(openSQLiteFile(t, path))

	_, err := first.Create(ctx, newAccount("alice"))
	require.NoError(t, err)

	stale, err := second.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, stale.LoggedIn)

	require.NoError(t, first.StartSession(ctx, "alice", "s-1"))
	assert.ErrorIs(t, second.StartSession(ctx, "alice", "s-2"), common.ErrorConflict)

	got, err := second.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SessionID)
}
