// Package migrations embeds the realty schema for each supported SQL
// dialect and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dialect selects both the goose dialect and the migration directory.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) gooseDialect() (string, error) {
	switch d {
	case Postgres:
		return "pgx", nil
	case SQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration of the given dialect.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	name, err := d.gooseDialect()
	if err != nil {
		return err
	}

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, string(d)); err != nil {
		return fmt.Errorf("migrate %s: %w", d, err)
	}
	return nil
}
