package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/google/uuid"
)

// Store persists listings in insertion order. Unknown ids yield
// common.ErrorNotFound and duplicate ids common.ErrorConflict.
type Store interface {
	Create(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Listing, error)
}

// Catalog validates listings and searches them; storage is delegated to a
// Store.
type Catalog struct {
	store Store
}

func New(store Store) *Catalog {
	return &Catalog{store: store}
}

// Add validates l, assigns it a fresh ID and stores it.
func (c *Catalog) Add(ctx context.Context, l Listing) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}

	l.ID = uuid.NewString()
	if err := c.store.Create(ctx, &l); err != nil {
		return "", fmt.Errorf("store listing: %w", err)
	}
	return l.ID, nil
}

func (c *Catalog) Remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: listing %s", common.ErrDoesNotExist, id)
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// List returns every listing in insertion order.
func (c *Catalog) List(ctx context.Context) ([]Listing, error) {
	listings, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// Find returns the first listing of the given kind and transaction whose
// attributes include every key/value pair of criteria.
func (c *Catalog) Find(ctx context.Context, kind Kind, transaction Transaction, criteria map[string]string) (*Listing, error) {
	listings, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range listings {
		l := &listings[i]
		if l.PropertyKind() != kind || l.TransactionKind() != transaction {
			continue
		}
		if matches(l.Attributes(), criteria) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s %s matches", common.ErrDoesNotExist, kind, transaction)
}

func matches(attrs, criteria map[string]string) bool {
	for k, v := range criteria {
		if got, ok := attrs[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of l.
func (l *Listing) Clone() *Listing {
	out := &Listing{ID: l.ID}
	if l.Property != nil {
		p := *l.Property
		if p.House != nil {
			h := *p.House
			p.House = &h
		}
		if p.Apartment != nil {
			a := *p.Apartment
			p.Apartment = &a
		}
		out.Property = &p
	}
	if l.Transaction != nil {
		t := *l.Transaction
		if t.Purchase != nil {
			pu := *t.Purchase
			t.Purchase = &pu
		}
		if t.Rental != nil {
			r := *t.Rental
			t.Rental = &r
		}
		out.Transaction = &t
	}
	return out
}
