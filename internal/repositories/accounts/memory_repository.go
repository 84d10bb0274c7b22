package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/models"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]models.Account)}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Username]; ok {
		return nil, common.ErrorConflict
	}
	r.accounts[account.Username] = *account

	stored := *account
	return &stored, nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) StartSession(ctx context.Context, username, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[username]
	if !ok {
		return common.ErrorNotFound
	}
	if a.LoggedIn {
		return common.ErrorConflict
	}
	a.LoggedIn = true
	a.SessionID = sessionID
	r.accounts[username] = a
	return nil
}

func (r *MemoryRepository) EndSession(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[username]
	if !ok {
		return common.ErrorNotFound
	}
	a.LoggedIn = false
	a.SessionID = ""
	r.accounts[username] = a
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.accounts, username)
	return nil
}

func (r *MemoryRepository) ListUsernames(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.accounts))
	for name := range r.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}
