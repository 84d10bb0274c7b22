// Package listings persists the property catalog.
package listings

import (
	"context"

	"github.com/dmitrijs2005/realty/internal/catalog"
)

// Repository stores listings in insertion order. It satisfies
// catalog.Store.
type Repository interface {
	// Create stores l under l.ID, or returns common.ErrorConflict.
	Create(ctx context.Context, l *catalog.Listing) error
	// Delete removes the listing, or returns common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]catalog.Listing, error)
}
