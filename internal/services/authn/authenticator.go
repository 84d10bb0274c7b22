// Package authn implements the Authenticator: account creation, credential
// verification, the per-account session flag, deletion and listing.
package authn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/cryptox"
	"github.com/dmitrijs2005/realty/internal/logging"
	"github.com/dmitrijs2005/realty/internal/models"
	"github.com/dmitrijs2005/realty/internal/repositories/accounts"
	"github.com/google/uuid"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 6

// Authenticator owns the credential store. Mutations run under one mutex so
// that the check-then-set sequences in AddUser and LogIn are atomic within
// the process.
type Authenticator struct {
	mu     sync.Mutex
	repo   accounts.Repository
	hasher cryptox.Hasher
	logger logging.Logger
}

func NewAuthenticator(repo accounts.Repository, hasher cryptox.Hasher, logger logging.Logger) *Authenticator {
	return &Authenticator{repo: repo, hasher: hasher, logger: logger}
}

// AddUser creates an account. The password is stored only as its digest.
func (a *Authenticator) AddUser(ctx context.Context, username, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: %s", common.ErrPasswordTooShort, username)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.repo.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, username)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return a.storageError(ctx, "lookup", username, err)
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := a.repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("%w: %s", common.ErrAlreadyExists, username)
		}
		return a.storageError(ctx, "create", username, err)
	}

	a.logger.Info(ctx, "user created", "username", username)
	return nil
}

// LogIn checks existence, then the session flag, then the password. On
// success it opens a session and returns its id. The store only opens a
// session for an account that is logged out, so of two concurrent logins
// sharing one store at most one succeeds.
func (a *Authenticator) LogIn(ctx context.Context, username, password string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	account, err := a.get(ctx, username)
	if err != nil {
		return "", err
	}
	if account.LoggedIn {
		return "", fmt.Errorf("%w: %s", common.ErrAlreadyLoggedIn, username)
	}

	ok, err := a.hasher.Verify(account.CredentialHash, password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		a.logger.Warn(ctx, "invalid password", "username", username)
		return "", fmt.Errorf("%w: %s", common.ErrInvalidPassword, username)
	}

	sessionID := uuid.NewString()
	if err := a.repo.StartSession(ctx, username, sessionID); err != nil {
		switch {
		case errors.Is(err, common.ErrorConflict):
			return "", fmt.Errorf("%w: %s", common.ErrAlreadyLoggedIn, username)
		case errors.Is(err, common.ErrorNotFound):
			return "", fmt.Errorf("%w: %s", common.ErrDoesNotExist, username)
		default:
			return "", a.storageError(ctx, "start session", username, err)
		}
	}

	a.logger.Info(ctx, "user logged in", "username", username)
	return sessionID, nil
}

// LogOut ends the session. It is a no-op for an account that is not logged
// in.
func (a *Authenticator) LogOut(ctx context.Context, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	account, err := a.get(ctx, username)
	if err != nil {
		return err
	}
	if !account.LoggedIn {
		return nil
	}

	if err := a.repo.EndSession(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: %s", common.ErrDoesNotExist, username)
		}
		return a.storageError(ctx, "end session", username, err)
	}

	a.logger.Info(ctx, "user logged out", "username", username)
	return nil
}

// IsLoggedIn reports the session flag; unknown usernames and storage
// failures read as false.
func (a *Authenticator) IsLoggedIn(ctx context.Context, username string) bool {
	account, err := a.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.logger.Error(ctx, "session lookup failed", "username", username, "error", err)
		}
		return false
	}
	return account.LoggedIn
}

// ValidSession reports whether username is logged in under sessionID.
// Storage failures read as false.
func (a *Authenticator) ValidSession(ctx context.Context, username, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	account, err := a.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.logger.Error(ctx, "session lookup failed", "username", username, "error", err)
		}
		return false
	}
	return account.LoggedIn && account.SessionID == sessionID
}

// DelUser removes the account even while it is logged in. Its session goes
// with it.
func (a *Authenticator) DelUser(ctx context.Context, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Delete(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: %s", common.ErrDoesNotExist, username)
		}
		return a.storageError(ctx, "delete", username, err)
	}

	a.logger.Info(ctx, "user deleted", "username", username)
	return nil
}

// ListUsers returns every username in ascending order.
func (a *Authenticator) ListUsers(ctx context.Context) ([]string, error) {
	names, err := a.repo.ListUsernames(ctx)
	if err != nil {
		return nil, a.storageError(ctx, "list", "", err)
	}
	return names, nil
}

func (a *Authenticator) UserExists(ctx context.Context, username string) (bool, error) {
	if _, err := a.repo.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, a.storageError(ctx, "lookup", username, err)
	}
	return true, nil
}

func (a *Authenticator) CountUsers(ctx context.Context) (int, error) {
	n, err := a.repo.Count(ctx)
	if err != nil {
		return 0, a.storageError(ctx, "count", "", err)
	}
	return n, nil
}

func (a *Authenticator) get(ctx context.Context, username string) (*models.Account, error) {
	account, err := a.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrDoesNotExist, username)
		}
		return nil, a.storageError(ctx, "lookup", username, err)
	}
	return account, nil
}

func (a *Authenticator) storageError(ctx context.Context, op, username string, err error) error {
	a.logger.Error(ctx, "account storage failure", "op", op, "username", username, "error", err)
	return fmt.Errorf("account %s: %w", op, err)
}
