package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	runContract(t, func(t *testing.T) Repository { return NewMemoryRepository() })
}

func TestMemoryRepository_StoresCopies(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	l := houseForSale()
	require.NoError(t, r.Create(ctx, l))
	l.Property.House.Garage = "none"

	got, err := r.List(ctx)
	require.NoError(t, err)
	got[0].Property.Bedrooms = 9

	again, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "attached", again[0].Property.House.Garage)
	assert.Equal(t, 3, again[0].Property.Bedrooms)
}
