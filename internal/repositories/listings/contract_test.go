package listings

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func houseForSale() *catalog.Listing {
	return &catalog.Listing{
		ID: uuid.NewString(),
		Property: &catalog.PropertyDetails{
			SquareFeet: 1800, Bedrooms: 3, Bathrooms: 2,
			House: &catalog.House{Stories: 2, Garage: "attached", Fenced: "yes"},
		},
		Transaction: &catalog.TransactionDetails{Purchase: &catalog.Purchase{Price: 350000, Taxes: 4200}},
	}
}

func apartmentForRent() *catalog.Listing {
	return &catalog.Listing{
		ID: uuid.NewString(),
		Property: &catalog.PropertyDetails{
			SquareFeet: 650, Bedrooms: 1, Bathrooms: 1,
			Apartment: &catalog.Apartment{Laundry: "coin", Balcony: "solarium"},
		},
		Transaction: &catalog.TransactionDetails{Rental: &catalog.Rental{Rent: 1200, Utilities: 90, Furnished: "no"}},
	}
}

// runContract exercises behaviour every Repository implementation shares.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create then list round-trips both shapes", func(t *testing.T) {
		r := newRepo(t)

		empty, err := r.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		house, flat := houseForSale(), apartmentForRent()
		require.NoError(t, r.Create(ctx, house))
		require.NoError(t, r.Create(ctx, flat))

		got, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, *house, got[0])
		assert.Equal(t, *flat, got[1])
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		r := newRepo(t)
		l := houseForSale()
		require.NoError(t, r.Create(ctx, l))
		assert.ErrorIs(t, r.Create(ctx, l), common.ErrorConflict)
	})

	t.Run("delete", func(t *testing.T) {
		r := newRepo(t)
		first, second := houseForSale(), apartmentForRent()
		require.NoError(t, r.Create(ctx, first))
		require.NoError(t, r.Create(ctx, second))

		require.NoError(t, r.Delete(ctx, first.ID))
		assert.ErrorIs(t, r.Delete(ctx, first.ID), common.ErrorNotFound)

		got, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("satisfies catalog store", func(t *testing.T) {
		c := catalog.New(newRepo(t))
		id, err := c.Add(ctx, *apartmentForRent())
		require.NoError(t, err)

		found, err := c.Find(ctx, catalog.KindApartment, catalog.TransactionRental, map[string]string{"balcony": "solarium"})
		require.NoError(t, err)
		assert.Equal(t, id, found.ID)
	})
}
