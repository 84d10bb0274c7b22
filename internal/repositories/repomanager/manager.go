// Package repomanager opens the configured storage backend, brings its
// schema up to date and vends the repositories the services depend on.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/realty/internal/config"
	"github.com/dmitrijs2005/realty/internal/repositories/accounts"
	"github.com/dmitrijs2005/realty/internal/repositories/listings"
	"github.com/dmitrijs2005/realty/internal/repositories/permissions"
)

type RepositoryManager interface {
	Accounts() accounts.Repository
	Permissions() permissions.Repository
	Listings() listings.Repository
	Close() error
}

// New returns the manager for cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewInMemoryRepositoryManager(), nil
	case config.StorageSQLite:
		return NewSQLiteRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StoragePostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
