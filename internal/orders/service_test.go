package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Brocoder07/ShopStream/internal/catalog"
	"github.com/Brocoder07/ShopStream/internal/inventory"
	"github.com/Brocoder07/ShopStream/internal/users"
)

type fixture struct {
	svc   *Service
	cat   *catalog.MemoryStore
	store *MemoryStore
	user  users.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	cat := catalog.NewMemoryStore()
	for _, p := range []catalog.Product{
		{ID: "5", Name: "Widget", Price: decimal.NewFromFloat(10.0), Stock: 3},
		{ID: "7", Name: "Gadget", Price: decimal.NewFromFloat(4.5), Stock: 1},
		{ID: "9", Name: "Gizmo", Price: decimal.NewFromFloat(2.0), Stock: 1},
	} {
		p := p
		require.NoError(t, cat.Create(ctx, &p))
	}

	dir := users.NewMemoryStore()
	u := users.User{Username: "buyer", Email: "buyer@example.com"}
	require.NoError(t, dir.Create(ctx, &u))

	store := NewMemoryStore(cat)
	return &fixture{
		svc:   &Service{Users: dir, Store: store},
		cat:   cat,
		store: store,
		user:  u,
	}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.cat.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 2, "7": 1})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, ord.Status)
	assert.Equal(t, f.user.ID, ord.UserID)
	assert.False(t, ord.CreatedAt.IsZero())
	require.Len(t, ord.Items, 2)

	// lines come out in ascending numeric product-id order
	assert.Equal(t, "5", ord.Items[0].ProductID)
	assert.Equal(t, "7", ord.Items[1].ProductID)
	assert.True(t, ord.Items[0].UnitPrice.Equal(decimal.NewFromFloat(10.0)))
	assert.True(t, ord.Items[1].UnitPrice.Equal(decimal.NewFromFloat(4.5)))

	// 2*10.0 + 1*4.5
	assert.True(t, ord.TotalAmount.Equal(decimal.NewFromFloat(24.5)), "total = %s", ord.TotalAmount)
	assert.Equal(t, 1, f.stock(t, "5"))
	assert.Equal(t, 0, f.stock(t, "7"))

	persisted, err := f.svc.Order(ctx, ord.ID)
	require.NoError(t, err)
	assert.True(t, persisted.TotalAmount.Equal(ord.TotalAmount))
}

func TestPlaceOrder_TotalMatchesItems(t *testing.T) {
	f := newFixture(t)

	ord, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{"5": 3, "9": 1})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range ord.Items {
		sum = sum.Add(it.Subtotal())
	}
	assert.True(t, ord.TotalAmount.Equal(sum))
}

func TestPlaceOrder_InsufficientStockRollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)

	// product 9 has stock 1; line 5 reserves first and must be released
	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{"5": 2, "9": 100})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Equal(t, 3, f.stock(t, "5"))
	assert.Equal(t, 1, f.stock(t, "9"))
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestPlaceOrder_UnknownProductRollsBack(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{"5": 1, "404": 1})
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	assert.Equal(t, 3, f.stock(t, "5"))
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestPlaceOrder_EmptyCartNoStorageAccess(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.store.BeginCount())
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestPlaceOrder_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), "nobody", Cart{"5": 1})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 3, f.stock(t, "5"))
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{"5": 0})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	assert.Equal(t, 3, f.stock(t, "5"))
}

func TestPlaceOrder_StorageFailureRestoresStock(t *testing.T) {
	for name, set := range map[string]func(*MemoryStore){
		"reserve": func(s *MemoryStore) { s.FailReserve = errors.New("connection reset") },
		"insert":  func(s *MemoryStore) { s.FailInsert = true },
		"commit":  func(s *MemoryStore) { s.FailCommit = true },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			set(f.store)

			_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, Cart{"5": 2, "7": 1})
			assert.ErrorIs(t, err, ErrStorage)

			assert.Equal(t, 3, f.stock(t, "5"))
			assert.Equal(t, 1, f.stock(t, "7"))
			assert.Equal(t, 0, f.store.OrderCount())
		})
	}
}

func TestPlaceOrder_PriceSnapshotImmuneToLaterEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 1})
	require.NoError(t, err)

	p, err := f.cat.Product(ctx, "5")
	require.NoError(t, err)
	p.Price = decimal.NewFromFloat(99.99)
	require.NoError(t, f.cat.Update(ctx, &p))

	got, err := f.svc.Order(ctx, ord.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromFloat(10.0)))
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromFloat(10.0)))
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	const stock = 5
	const buyers = 20

	f := newFixture(t)
	ctx := context.Background()

	p, err := f.cat.Product(ctx, "5")
	require.NoError(t, err)
	p.Stock = stock
	require.NoError(t, f.cat.Update(ctx, &p))

	results := make([]error, buyers)
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 1})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var okCount, shortCount int
	for _, err := range results {
		switch {
		case err == nil:
			okCount++
		default:
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			shortCount++
		}
	}
	assert.Equal(t, stock, okCount)
	assert.Equal(t, buyers-stock, shortCount)
	assert.Equal(t, 0, f.stock(t, "5"))
	assert.Equal(t, stock, f.store.OrderCount())
}

func TestOrdersForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := users.User{Username: "other", Email: "other@example.com"}
	require.NoError(t, f.svc.Users.(*users.MemoryStore).Create(ctx, &other))

	_, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 1})
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, other.ID, Cart{"7": 1})
	require.NoError(t, err)

	mine, err := f.svc.OrdersForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.user.ID, mine[0].UserID)

	all, err := f.svc.AllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateOrderStatus_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 1})
	require.NoError(t, err)

	shipped, err := f.svc.UpdateOrderStatus(ctx, ord.ID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, shipped.Status)

	delivered, err := f.svc.UpdateOrderStatus(ctx, ord.ID, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 2, "7": 1})
	require.NoError(t, err)
	require.Equal(t, 1, f.stock(t, "5"))
	require.Equal(t, 0, f.stock(t, "7"))

	cancelled, err := f.svc.UpdateOrderStatus(ctx, ord.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	assert.Equal(t, 3, f.stock(t, "5"))
	assert.Equal(t, 1, f.stock(t, "7"))
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord, err := f.svc.PlaceOrder(ctx, f.user.ID, Cart{"5": 1})
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, ord.ID, "TELEPORTED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// PENDING cannot jump straight to DELIVERED
	_, err = f.svc.UpdateOrderStatus(ctx, ord.ID, "DELIVERED")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", "SHIPPED")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// unchanged after all rejections
	got, err := f.svc.Order(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
