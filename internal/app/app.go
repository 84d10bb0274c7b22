// Package app wires the realty services together from a Config: logger,
// storage, hashing, the Authenticator/Authorizer pair, the catalog and the
// agency.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/realty/internal/agency"
	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/config"
	"github.com/dmitrijs2005/realty/internal/cryptox"
	"github.com/dmitrijs2005/realty/internal/logging"
	"github.com/dmitrijs2005/realty/internal/repositories/repomanager"
	"github.com/dmitrijs2005/realty/internal/services/authn"
	"github.com/dmitrijs2005/realty/internal/services/authz"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	users  *authn.Authenticator
	perms  *authz.Authorizer
	Agency *agency.Agency
}

// NewApp opens storage, seeds the default permissions and builds the
// agency. Logs go to logOut.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logOut, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	hasher, err := cryptox.NewHasher(c.PasswordHasher)
	if err != nil {
		return nil, err
	}

	policy, err := agency.ParseGrantPolicy(c.GrantPolicy)
	if err != nil {
		return nil, err
	}

	repos, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	users := authn.NewAuthenticator(repos.Accounts(), hasher, logger)
	perms := authz.NewAuthorizer(repos.Permissions(), users, logger)

	created, err := perms.SeedDefaults(ctx)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("seed permissions: %w", err)
	}
	if created > 0 {
		logger.Info(ctx, "default permissions seeded", "count", created)
	}

	ag := agency.New(users, perms, catalog.New(repos.Listings()), agency.Options{
		SecretKey:   []byte(c.SecretKey),
		TokenTTL:    c.SessionTokenValidityDuration,
		GrantPolicy: policy,
	}, logger)

	logger.Debug(ctx, "app initialized", "storage", c.StorageDriver, "hasher", c.PasswordHasher)

	return &App{config: c, logger: logger, repos: repos, users: users, perms: perms, Agency: ag}, nil
}

// Close releases the storage backend.
func (app *App) Close() error {
	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "storage close failed", "error", err)
		return err
	}
	app.logger.Debug(context.Background(), "storage closed", "storage", app.config.StorageDriver)
	return nil
}
