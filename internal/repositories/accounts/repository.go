// Package accounts is the credential store: one record per username with its
// credential hash and session flag.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/realty/internal/models"
)

// Repository persists accounts. Missing usernames yield common.ErrorNotFound
// and duplicate usernames common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	// StartSession logs the account in under sessionID only if it is logged
	// out; an account already logged in yields common.ErrorConflict.
	StartSession(ctx context.Context, username, sessionID string) error
	// EndSession logs the account out and clears its session id.
	EndSession(ctx context.Context, username string) error
	Delete(ctx context.Context, username string) error
	// ListUsernames returns usernames in ascending order.
	ListUsernames(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}
