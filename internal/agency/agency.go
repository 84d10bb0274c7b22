// Package agency is the application session: it logs operators in, hands
// out session tokens and routes every privileged action through the
// Authorizer before touching users, permissions or the catalog.
package agency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/realty/internal/auth"
	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/logging"
	"github.com/dmitrijs2005/realty/internal/services/authn"
	"github.com/dmitrijs2005/realty/internal/services/authz"
)

// GrantPolicy decides what happens to the grants of a deleted account.
type GrantPolicy int

const (
	// GrantPolicyPrune revokes every grant of the deleted account.
	GrantPolicyPrune GrantPolicy = iota
	// GrantPolicyRetain keeps the grants; an account later created with
	// the same username inherits them.
	GrantPolicyRetain
)

func ParseGrantPolicy(s string) (GrantPolicy, error) {
	switch s {
	case "prune":
		return GrantPolicyPrune, nil
	case "retain":
		return GrantPolicyRetain, nil
	default:
		return 0, fmt.Errorf("%w: unknown grant policy %q", common.ErrValidation, s)
	}
}

// BootstrapStatus reports the outcome of Bootstrap.
type BootstrapStatus int

const (
	// BootstrapSkipped means accounts already existed; nothing was changed.
	BootstrapSkipped BootstrapStatus = iota
	// BootstrapCreated means the first account was created and granted
	// every registered permission.
	BootstrapCreated
)

func (s BootstrapStatus) String() string {
	if s == BootstrapCreated {
		return "created"
	}
	return "skipped"
}

type Options struct {
	SecretKey   []byte
	TokenTTL    time.Duration
	GrantPolicy GrantPolicy
}

type Agency struct {
	users   *authn.Authenticator
	perms   *authz.Authorizer
	catalog *catalog.Catalog
	opts    Options
	logger  logging.Logger

	bootstrapMu sync.Mutex
}

func New(users *authn.Authenticator, perms *authz.Authorizer, cat *catalog.Catalog, opts Options, logger logging.Logger) *Agency {
	return &Agency{users: users, perms: perms, catalog: cat, opts: opts, logger: logger}
}

// Bootstrap creates the first account and grants it every registered
// permission. It does nothing once any account exists.
func (a *Agency) Bootstrap(ctx context.Context, username, password string) (BootstrapStatus, error) {
	a.bootstrapMu.Lock()
	defer a.bootstrapMu.Unlock()

	n, err := a.users.CountUsers(ctx)
	if err != nil {
		return BootstrapSkipped, err
	}
	if n > 0 {
		return BootstrapSkipped, nil
	}

	if err := a.users.AddUser(ctx, username, password); err != nil {
		return BootstrapSkipped, err
	}

	names, err := a.perms.ListAllPermissionNames(ctx)
	if err != nil {
		return BootstrapCreated, err
	}
	for _, name := range names {
		if err := a.perms.GivePermission(ctx, name, username); err != nil {
			return BootstrapCreated, err
		}
	}

	a.logger.Info(ctx, "bootstrap account created", "username", username, "permissions", len(names))
	return BootstrapCreated, nil
}

// LogIn verifies the credentials and returns a session token bound to the
// new login session.
func (a *Agency) LogIn(ctx context.Context, username, password string) (string, error) {
	sessionID, err := a.users.LogIn(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(username, sessionID, a.opts.SecretKey, a.opts.TokenTTL)
	if err != nil {
		if lerr := a.users.LogOut(ctx, username); lerr != nil {
			a.logger.Error(ctx, "rollback of login failed", "username", username, "error", lerr)
		}
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// LogOut ends the session named by token. An expired token cannot be used
// to log out; the account stays logged in until an administrator deletes
// it.
func (a *Agency) LogOut(ctx context.Context, token string) error {
	username, err := a.session(ctx, token)
	if err != nil {
		return err
	}
	return a.users.LogOut(ctx, username)
}

// Whoami returns the username of a live session.
func (a *Agency) Whoami(ctx context.Context, token string) (string, error) {
	return a.session(ctx, token)
}

// Authorize resolves token to a logged-in username and verifies that it
// holds the permission gating cmd.
func (a *Agency) Authorize(ctx context.Context, token string, cmd Command) (string, error) {
	username, err := a.session(ctx, token)
	if err != nil {
		return "", err
	}

	perm := cmd.Permission()
	if perm == "" {
		return "", fmt.Errorf("%w: unknown command %s", common.ErrValidation, cmd)
	}

	if _, err := a.perms.VerifyPermission(ctx, perm, username); err != nil {
		return "", err
	}
	return username, nil
}

// session resolves token to its username. The token must name the login
// session the account is currently in; tokens of earlier logins, or of a
// deleted account, are rejected.
func (a *Agency) session(ctx context.Context, token string) (string, error) {
	username, sessionID, err := auth.GetSessionFromToken(token, a.opts.SecretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}
	if !a.users.ValidSession(ctx, username, sessionID) {
		return "", fmt.Errorf("%w: session of %s has ended", common.ErrUnauthorized, username)
	}
	return username, nil
}

func (a *Agency) AddUser(ctx context.Context, token, username, password string) error {
	if _, err := a.Authorize(ctx, token, CommandManageUsers); err != nil {
		return err
	}
	return a.users.AddUser(ctx, username, password)
}

// DeleteUser removes the account and then applies the grant policy.
func (a *Agency) DeleteUser(ctx context.Context, token, username string) error {
	actor, err := a.Authorize(ctx, token, CommandManageUsers)
	if err != nil {
		return err
	}

	if err := a.users.DelUser(ctx, username); err != nil {
		return err
	}

	if a.opts.GrantPolicy == GrantPolicyPrune {
		if _, err := a.perms.RevokeAll(ctx, username); err != nil {
			return fmt.Errorf("user %s deleted, grants kept: %w", username, err)
		}
	}

	a.logger.Info(ctx, "user deleted by operator", "username", username, "operator", actor)
	return nil
}

func (a *Agency) ListUsers(ctx context.Context, token string) ([]string, error) {
	if _, err := a.Authorize(ctx, token, CommandManageUsers); err != nil {
		return nil, err
	}
	return a.users.ListUsers(ctx)
}

func (a *Agency) AddPermission(ctx context.Context, token, name string) error {
	if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
		return err
	}
	return a.perms.AddPermission(ctx, name)
}

func (a *Agency) GivePermission(ctx context.Context, token, name, username string) error {
	if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
		return err
	}
	return a.perms.GivePermission(ctx, name, username)
}

func (a *Agency) WithdrawPermission(ctx context.Context, token, name, username string) error {
	if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
		return err
	}
	return a.perms.WithdrawPermission(ctx, name, username)
}

// ListPermissions lists the grants of username. Any live session may list
// its own grants; listing another user's requires CommandManagePermissions.
func (a *Agency) ListPermissions(ctx context.Context, token, username string) ([]string, error) {
	actor, err := a.session(ctx, token)
	if err != nil {
		return nil, err
	}
	if actor != username {
		if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
			return nil, err
		}
	}
	return a.perms.ListPermissions(ctx, username)
}

func (a *Agency) ListAllPermissions(ctx context.Context, token string) ([]string, error) {
	if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
		return nil, err
	}
	return a.perms.ListAllPermissionNames(ctx)
}

// Grantees lists, in ascending order, the usernames holding the permission.
// Under GrantPolicyRetain this includes usernames whose accounts are gone.
func (a *Agency) Grantees(ctx context.Context, token, name string) ([]string, error) {
	if _, err := a.Authorize(ctx, token, CommandManagePermissions); err != nil {
		return nil, err
	}

	p, err := a.perms.Grantees(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Grantees, nil
}

func (a *Agency) AddListing(ctx context.Context, token string, l catalog.Listing) (string, error) {
	actor, err := a.Authorize(ctx, token, CommandAddProperty)
	if err != nil {
		return "", err
	}

	id, err := a.catalog.Add(ctx, l)
	if err != nil {
		return "", err
	}
	a.logger.Info(ctx, "listing added", "id", id, "operator", actor)
	return id, nil
}

func (a *Agency) RemoveListing(ctx context.Context, token, id string) error {
	actor, err := a.Authorize(ctx, token, CommandRemoveProperty)
	if err != nil {
		return err
	}

	if err := a.catalog.Remove(ctx, id); err != nil {
		return err
	}
	a.logger.Info(ctx, "listing removed", "id", id, "operator", actor)
	return nil
}

func (a *Agency) Listings(ctx context.Context, token string) ([]catalog.Listing, error) {
	if _, err := a.Authorize(ctx, token, CommandViewProperties); err != nil {
		return nil, err
	}
	return a.catalog.List(ctx)
}

func (a *Agency) FindListing(ctx context.Context, token string, kind catalog.Kind, tr catalog.Transaction, criteria map[string]string) (*catalog.Listing, error) {
	if _, err := a.Authorize(ctx, token, CommandViewProperties); err != nil {
		return nil, err
	}
	return a.catalog.Find(ctx, kind, tr, criteria)
}
