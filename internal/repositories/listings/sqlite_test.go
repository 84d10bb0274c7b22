package listings

import (
	"context"
	"database/sql"
	"testing"

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

func TestSQLiteRepository_UnknownKindInRow(t *testing.T) {
	db := setupSQLite(t)
	_, err := db.Exec(`INSERT INTO listings (id, kind, offer) VALUES ('x', 'castle', 'purchase')`)
	require.NoError(t, err)

	_, err = NewSQLiteRepository(db).List(context.Background())
	assert.ErrorContains(t, err, "listing x")
}
