package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	ctx := context.Background()
	for _, p := range []Product{
		{ID: "1", Name: "Espresso Machine", Price: decimal.NewFromFloat(249.99), Stock: 4, Category: "kitchen"},
		{ID: "2", Name: "Coffee Grinder", Price: decimal.NewFromFloat(79.50), Stock: 10, Category: "kitchen"},
		{ID: "3", Name: "Desk Lamp", Price: decimal.NewFromFloat(35), Stock: 2, Category: "office"},
	} {
		p := p
		require.NoError(t, st.Create(ctx, &p))
	}
	return st
}

func TestMemoryStore_ListSorted(t *testing.T) {
	st := seed(t)
	ps, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "Coffee Grinder", ps[0].Name)
	assert.Equal(t, "Desk Lamp", ps[1].Name)
}

func TestMemoryStore_SearchAndCategory(t *testing.T) {
	st := seed(t)
	ctx := context.Background()

	ps, err := st.SearchByName(ctx, "coffee")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "2", ps[0].ID)

	ps, err = st.ByCategory(ctx, "kitchen")
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestMemoryStore_UpdateAndDelete(t *testing.T) {
	st := seed(t)
	ctx := context.Background()

	p, err := st.Product(ctx, "3")
	require.NoError(t, err)
	p.Price = decimal.NewFromFloat(29.99)
	require.NoError(t, st.Update(ctx, &p))

	got, err := st.Product(ctx, "3")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromFloat(29.99)))

	require.NoError(t, st.Delete(ctx, "3"))
	_, err = st.Product(ctx, "3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, "3"), ErrNotFound)
}

func TestMemoryStore_WithProductLocksState(t *testing.T) {
	st := seed(t)

	err := st.WithProduct("1", func(p *Product) error {
		p.Stock -= 3
		return nil
	})
	require.NoError(t, err)

	got, err := st.Product(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	assert.ErrorIs(t, st.WithProduct("missing", func(*Product) error { return nil }), ErrNotFound)
}
