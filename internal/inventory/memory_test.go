package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brocoder07/ShopStream/internal/catalog"
)

func newLedger(t *testing.T, stock int) (*MemoryLedger, *catalog.MemoryStore) {
	t.Helper()
	cat := catalog.NewMemoryStore()
	p := catalog.Product{ID: "5", Name: "Widget", Price: decimal.NewFromFloat(10.0), Stock: stock}
	require.NoError(t, cat.Create(context.Background(), &p))
	return &MemoryLedger{Catalog: cat}, cat
}

func stockOf(t *testing.T, cat *catalog.MemoryStore, id string) int {
	t.Helper()
	p, err := cat.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserve_DecrementsAndSnapshotsPrice(t *testing.T) {
	led, cat := newLedger(t, 3)

	res, err := led.Reserve(context.Background(), "5", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Qty)
	assert.True(t, res.UnitPrice.Equal(decimal.NewFromFloat(10.0)))
	assert.Equal(t, 1, stockOf(t, cat, "5"))
}

func TestReserve_InsufficientStockLeavesStateUntouched(t *testing.T) {
	led, cat := newLedger(t, 3)

	_, err := led.Reserve(context.Background(), "5", 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, stockOf(t, cat, "5"))
}

func TestReserve_UnknownProduct(t *testing.T) {
	led, _ := newLedger(t, 3)

	_, err := led.Reserve(context.Background(), "404", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReserve_NonPositiveQuantity(t *testing.T) {
	led, _ := newLedger(t, 3)

	for _, qty := range []int{0, -2} {
		_, err := led.Reserve(context.Background(), "5", qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestRelease_RestoresStockExactlyOnce(t *testing.T) {
	led, cat := newLedger(t, 3)
	ctx := context.Background()

	res, err := led.Reserve(ctx, "5", 2)
	require.NoError(t, err)
	require.NoError(t, led.Release(ctx, res))
	assert.Equal(t, 3, stockOf(t, cat, "5"))

	// second release is a programming error, not a silent no-op
	assert.ErrorIs(t, led.Release(ctx, res), ErrAlreadyReleased)
	assert.Equal(t, 3, stockOf(t, cat, "5"))
}

func TestReserve_ConcurrentCallersNeverOversell(t *testing.T) {
	const stock = 5
	const callers = 40
	led, cat := newLedger(t, stock)

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := led.Reserve(context.Background(), "5", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var okCount, shortCount int
	for err := range results {
		switch {
		case err == nil:
			okCount++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			shortCount++
		}
	}
	assert.Equal(t, stock, okCount)
	assert.Equal(t, callers-stock, shortCount)
	assert.Equal(t, 0, stockOf(t, cat, "5"))
}
