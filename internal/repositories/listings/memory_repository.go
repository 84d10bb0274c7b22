package listings

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/common"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	listings []*catalog.Listing
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, l *catalog.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listings {
		if existing.ID == l.ID {
			return common.ErrorConflict
		}
	}
	r.listings = append(r.listings, l.Clone())
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.listings {
		if l.ID == id {
			r.listings = append(r.listings[:i], r.listings[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *MemoryRepository) List(ctx context.Context) ([]catalog.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, *l.Clone())
	}
	return out, nil
}
