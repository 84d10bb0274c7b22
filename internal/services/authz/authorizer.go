// Package authz implements the Authorizer: the permission registry and the
// per-user checks every privileged action goes through.
package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/logging"
	"github.com/dmitrijs2005/realty/internal/models"
	"github.com/dmitrijs2005/realty/internal/repositories/permissions"
)

// Default permission names, in registration order.
const (
	PermissionAddEntry          = "add a new entry"
	PermissionDeleteEntries     = "delete entries"
	PermissionViewProperties    = "view information about properties"
	PermissionManageUsers       = "add and delete users"
	PermissionManagePermissions = "manage permissions"
)

// DefaultPermissions is the permission set seeded at startup.
var DefaultPermissions = []string{
	PermissionAddEntry,
	PermissionDeleteEntries,
	PermissionViewProperties,
	PermissionManageUsers,
	PermissionManagePermissions,
}

// UserDirectory resolves usernames to live accounts. The Authorizer never
// creates or deletes accounts through it.
type UserDirectory interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

type Authorizer struct {
	mu     sync.RWMutex
	repo   permissions.Repository
	users  UserDirectory
	logger logging.Logger
}

func NewAuthorizer(repo permissions.Repository, users UserDirectory, logger logging.Logger) *Authorizer {
	return &Authorizer{repo: repo, users: users, logger: logger}
}

// AddPermission registers name with no grantees.
func (a *Authorizer) AddPermission(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Create(ctx, name); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("%w: permission %q", common.ErrAlreadyExists, name)
		}
		return a.storageError(ctx, "create", err)
	}

	a.logger.Info(ctx, "permission added", "permission", name)
	return nil
}

// EnsurePermission registers name unless it already exists and reports
// whether it was created.
func (a *Authorizer) EnsurePermission(ctx context.Context, name string) (bool, error) {
	err := a.AddPermission(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrAlreadyExists):
		return false, nil
	default:
		return false, err
	}
}

// SeedDefaults ensures every name in DefaultPermissions is registered and
// returns how many were created.
func (a *Authorizer) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, name := range DefaultPermissions {
		ok, err := a.EnsurePermission(ctx, name)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// GivePermission grants name to username. Re-granting is a no-op.
func (a *Authorizer) GivePermission(ctx context.Context, name, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireUser(ctx, username); err != nil {
		return err
	}

	if err := a.repo.Grant(ctx, name, username); err != nil {
		return a.permissionError(ctx, name, "grant", err)
	}

	a.logger.Info(ctx, "permission granted", "permission", name, "username", username)
	return nil
}

// WithdrawPermission revokes name from username. Revoking a grant the user
// does not hold fails with ErrDoesNotExist.
func (a *Authorizer) WithdrawPermission(ctx context.Context, name, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireUser(ctx, username); err != nil {
		return err
	}

	removed, err := a.repo.Revoke(ctx, name, username)
	if err != nil {
		return a.permissionError(ctx, name, "revoke", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s does not hold %q", common.ErrDoesNotExist, username, name)
	}

	a.logger.Info(ctx, "permission withdrawn", "permission", name, "username", username)
	return nil
}

// VerifyPermission returns true when username holds name. It fails with
// ErrDoesNotExist for an unknown user or permission and with
// ErrPermissionDenied when the grant is missing.
func (a *Authorizer) VerifyPermission(ctx context.Context, name, username string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.requireUser(ctx, username); err != nil {
		return false, err
	}

	held, err := a.repo.IsGranted(ctx, name, username)
	if err != nil {
		return false, a.permissionError(ctx, name, "verify", err)
	}
	if !held {
		a.logger.Debug(ctx, "permission denied", "permission", name, "username", username)
		return false, fmt.Errorf("%w: %s lacks %q", common.ErrPermissionDenied, username, name)
	}
	return true, nil
}

// ListPermissions returns the names username holds, in registration order.
func (a *Authorizer) ListPermissions(ctx context.Context, username string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.requireUser(ctx, username); err != nil {
		return nil, err
	}

	names, err := a.repo.GrantedTo(ctx, username)
	if err != nil {
		return nil, a.storageError(ctx, "list", err)
	}
	return names, nil
}

// ListAllPermissionNames returns every registered name in registration order.
func (a *Authorizer) ListAllPermissionNames(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names, err := a.repo.Names(ctx)
	if err != nil {
		return nil, a.storageError(ctx, "list", err)
	}
	return names, nil
}

// Grantees returns the permission with its grantees in ascending order.
// Grants of deleted accounts are included when they were retained.
func (a *Authorizer) Grantees(ctx context.Context, name string) (*models.Permission, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, err := a.repo.Get(ctx, name)
	if err != nil {
		return nil, a.permissionError(ctx, name, "get", err)
	}
	return p, nil
}

// RevokeAll drops every grant naming username, whether or not the account
// still exists.
func (a *Authorizer) RevokeAll(ctx context.Context, username string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.repo.RevokeAll(ctx, username)
	if err != nil {
		return 0, a.storageError(ctx, "revoke all", err)
	}
	if n > 0 {
		a.logger.Info(ctx, "grants revoked", "username", username, "count", n)
	}
	return n, nil
}

func (a *Authorizer) requireUser(ctx context.Context, username string) error {
	ok, err := a.users.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %s", common.ErrDoesNotExist, username)
	}
	return nil
}

func (a *Authorizer) permissionError(ctx context.Context, name, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: permission %q", common.ErrDoesNotExist, name)
	}
	return a.storageError(ctx, op, err)
}

func (a *Authorizer) storageError(ctx context.Context, op string, err error) error {
	a.logger.Error(ctx, "permission storage failure", "op", op, "error", err)
	return fmt.Errorf("permission %s: %w", op, err)
}
