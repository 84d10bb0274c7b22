package repomanager

import (
	"github.com/dmitrijs2005/realty/internal/repositories/accounts"
	"github.com/dmitrijs2005/realty/internal/repositories/listings"
	"github.com/dmitrijs2005/realty/internal/repositories/permissions"
)

// InMemoryRepositoryManager keeps everything in process memory; state is
// lost when the process exits.
type InMemoryRepositoryManager struct {
	accounts    *accounts.MemoryRepository
	permissions *permissions.MemoryRepository
	listings    *listings.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		accounts:    accounts.NewMemoryRepository(),
		permissions: permissions.NewMemoryRepository(),
		listings:    listings.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *InMemoryRepositoryManager) Permissions() permissions.Repository {
	return m.permissions
}

func (m *InMemoryRepositoryManager) Listings() listings.Repository {
	return m.listings
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
