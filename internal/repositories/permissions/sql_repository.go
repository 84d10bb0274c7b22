package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/dbx"
	"github.com/dmitrijs2005/realty/internal/models"
)

// SQLRepository stores permissions in PostgreSQL or SQLite. Grant and
// Revoke resolve the permission and change the grant in one transaction.
type SQLRepository struct {
	db      *sql.DB
	dialect dbx.Dialect
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

func (r *SQLRepository) Create(ctx context.Context, name string) error {
	query := `INSERT INTO permissions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}
	return nil
}

func (r *SQLRepository) Names(ctx context.Context) ([]string, error) {
	return r.queryNames(ctx, r.db, `SELECT name FROM permissions ORDER BY id`)
}

func (r *SQLRepository) Get(ctx context.Context, name string) (*models.Permission, error) {
	id, err := r.permissionID(ctx, r.db, name)
	if err != nil {
		return nil, err
	}

	grantees, err := r.queryNames(ctx, r.db,
		`SELECT username FROM permission_grants WHERE permission_id = $1 ORDER BY username`, id)
	if err != nil {
		return nil, err
	}

	return &models.Permission{Name: name, Grantees: grantees}, nil
}

func (r *SQLRepository) Grant(ctx context.Context, name, username string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := r.permissionID(ctx, tx, name)
		if err != nil {
			return err
		}

		query :=
			`INSERT INTO permission_grants (permission_id, username)
			 VALUES ($1, $2)
			 ON CONFLICT (permission_id, username) DO NOTHING`

		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(query), id, username); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *SQLRepository) Revoke(ctx context.Context, name, username string) (bool, error) {
	var removed bool

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := r.permissionID(ctx, tx, name)
		if err != nil {
			return err
		}

		query := `DELETE FROM permission_grants WHERE permission_id = $1 AND username = $2`

		res, err := tx.ExecContext(ctx, r.dialect.Rebind(query), id, username)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

func (r *SQLRepository) IsGranted(ctx context.Context, name, username string) (bool, error) {
	query :=
		`SELECT EXISTS (
			SELECT 1 FROM permission_grants g
			WHERE g.permission_id = p.id AND g.username = $2
		 ) FROM permissions p
		 WHERE p.name = $1`

	var held bool
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), name, username).Scan(&held)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return held, nil
}

func (r *SQLRepository) GrantedTo(ctx context.Context, username string) ([]string, error) {
	return r.queryNames(ctx, r.db,
		`SELECT p.name FROM permissions p
		 JOIN permission_grants g ON g.permission_id = p.id
		 WHERE g.username = $1
		 ORDER BY p.id`, username)
}

func (r *SQLRepository) RevokeAll(ctx context.Context, username string) (int64, error) {
	query := `DELETE FROM permission_grants WHERE username = $1`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) permissionID(ctx context.Context, db dbx.DBTX, name string) (int64, error) {
	query := `SELECT id FROM permissions WHERE name = $1`

	var id int64
	if err := db.QueryRowContext(ctx, r.dialect.Rebind(query), name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) queryNames(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}
