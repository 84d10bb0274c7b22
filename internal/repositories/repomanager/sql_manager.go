package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/realty/internal/filex"
	"github.com/dmitrijs2005/realty/internal/migrations"
	"github.com/dmitrijs2005/realty/internal/repositories/accounts"
	"github.com/dmitrijs2005/realty/internal/repositories/listings"
	"github.com/dmitrijs2005/realty/internal/repositories/permissions"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends SQL-backed repositories sharing one *sql.DB.
type SQLRepositoryManager struct {
	db          *sql.DB
	accounts    accounts.Repository
	permissions permissions.Repository
	listings    listings.Repository
}

// sqlOpen and migrateUp are seams for tests.
var (
	sqlOpen   = sql.Open
	migrateUp = migrations.Up
)

// sqlitePragmas are added to file DSNs that do not already mention them.
// Another realtyctl process may hold the write lock; writers wait for it
// instead of failing with SQLITE_BUSY, and transactions take it up front.
var sqlitePragmas = []struct{ marker, param string }{
	{marker: "busy_timeout", param: "_pragma=busy_timeout(5000)"},
	{marker: "_txlock", param: "_txlock=immediate"},
}

// sqliteDSN appends sqlitePragmas to a file DSN. In-memory databases are
// private to the process and are returned unchanged.
func sqliteDSN(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return dsn
	}

	for _, p := range sqlitePragmas {
		if strings.Contains(dsn, p.marker) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.param
	}
	return dsn
}

// NewSQLiteRepositoryManager opens (or creates) the SQLite database named by
// dsn, creating its directory if needed, and applies the SQLite migrations.
// SQLite allows a single writer, so the pool is limited to one connection.
func NewSQLiteRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("db dir error: %w", err)
	}

	db, err := sqlOpen("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(ctx, db, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &SQLRepositoryManager{
		db:          db,
		accounts:    accounts.NewSQLiteRepository(db),
		permissions: permissions.NewSQLiteRepository(db),
		listings:    listings.NewSQLiteRepository(db),
	}, nil
}

// NewPostgresRepositoryManager connects through the pgx stdlib driver and
// applies the PostgreSQL migrations.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := migrateUp(ctx, db, migrations.Postgres); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &SQLRepositoryManager{
		db:          db,
		accounts:    accounts.NewPostgresRepository(db),
		permissions: permissions.NewPostgresRepository(db),
		listings:    listings.NewPostgresRepository(db),
	}, nil
}

func (m *SQLRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *SQLRepositoryManager) Permissions() permissions.Repository {
	return m.permissions
}

func (m *SQLRepositoryManager) Listings() listings.Repository {
	return m.listings
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
