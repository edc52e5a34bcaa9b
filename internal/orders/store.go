package orders

import (
	"context"

	"github.com/Brocoder07/ShopStream/internal/inventory"
)

// Store is the transactional persistence handle behind the placement
// service.
type Store interface {
	// Begin opens a placement transaction. Reservations made through
	// the returned Tx commit or roll back together with the order rows.
	Begin(ctx context.Context) (Tx, error)

	Order(ctx context.Context, id string) (Order, error)
	OrdersForUser(ctx context.Context, userID string) ([]Order, error)
	AllOrders(ctx context.Context) ([]Order, error)

	// UpdateStatus moves an order from one status to another as a
	// compare-and-set; a concurrent transition makes it fail with
	// ErrInvalidTransition. When restock is set, the order's line
	// quantities are returned to stock in the same atomic unit.
	UpdateStatus(ctx context.Context, orderID string, from, to Status, restock bool) error
}

// Tx is one placement attempt: the inventory ledger plus the order
// insert, all inside a single transaction boundary.
type Tx interface {
	inventory.Ledger
	Insert(ctx context.Context, o *Order) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
