package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/dbx"
	"github.com/dmitrijs2005/realty/internal/models"
)

// SQLRepository stores accounts in PostgreSQL or SQLite. Queries are written
// with $N placeholders and rebound for the dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

func (r *SQLRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, credential_hash, logged_in, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		account.ID, account.Username, account.CredentialHash, account.LoggedIn, account.SessionID, account.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorConflict
	}

	return account, nil
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, logged_in, session_id, created_at FROM accounts
		 WHERE username = $1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), username).
		Scan(&a.ID, &a.Username, &a.CredentialHash, &a.LoggedIn, &a.SessionID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

// StartSession is a compare-and-set on logged_in, so concurrent logins from
// separate processes cannot both succeed. When no row changes, a second
// lookup tells a logged-in account from a missing one.
func (r *SQLRepository) StartSession(ctx context.Context, username, sessionID string) error {
	query :=
		`UPDATE accounts SET logged_in = TRUE, session_id = $2
		 WHERE username = $1 AND logged_in = FALSE`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), username, sessionID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(existsQuery), username).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrorConflict
}

func (r *SQLRepository) EndSession(ctx context.Context, username string) error {
	query := `UPDATE accounts SET logged_in = FALSE, session_id = '' WHERE username = $1`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM accounts WHERE username = $1`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT username FROM accounts ORDER BY username`)
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

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
