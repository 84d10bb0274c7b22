package permissions

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/models"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	order    []string
	grantees map[string]map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{grantees: make(map[string]map[string]struct{})}
}

func (r *MemoryRepository) Create(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.grantees[name]; ok {
		return common.ErrorConflict
	}
	r.grantees[name] = make(map[string]struct{})
	r.order = append(r.order, name)
	return nil
}

func (r *MemoryRepository) Names(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...), nil
}

func (r *MemoryRepository) Get(ctx context.Context, name string) (*models.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.grantees[name]
	if !ok {
		return nil, common.ErrorNotFound
	}

	p := &models.Permission{Name: name, Grantees: make([]string, 0, len(set))}
	for u := range set {
		p.Grantees = append(p.Grantees, u)
	}
	sort.Strings(p.Grantees)
	return p, nil
}

func (r *MemoryRepository) Grant(ctx context.Context, name, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.grantees[name]
	if !ok {
		return common.ErrorNotFound
	}
	set[username] = struct{}{}
	return nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, name, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.grantees[name]
	if !ok {
		return false, common.ErrorNotFound
	}
	if _, held := set[username]; !held {
		return false, nil
	}
	delete(set, username)
	return true, nil
}

func (r *MemoryRepository) IsGranted(ctx context.Context, name, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.grantees[name]
	if !ok {
		return false, common.ErrorNotFound
	}
	_, held := set[username]
	return held, nil
}

func (r *MemoryRepository) GrantedTo(ctx context.Context, username string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	for _, name := range r.order {
		if _, held := r.grantees[name][username]; held {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *MemoryRepository) RevokeAll(ctx context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, set := range r.grantees {
		if _, held := set[username]; held {
			delete(set, username)
			n++
		}
	}
	return n, nil
}
