package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Brocoder07/ShopStream/internal/inventory"
	"github.com/Brocoder07/ShopStream/internal/users"
)

// Service turns carts into persisted orders and administers the order
// lifecycle. It is the only writer of orders and, through the ledger,
// of product stock.
type Service struct {
	Users users.Directory
	Store Store
}

// PlaceOrder converts a cart into a priced, persisted order.
// Reservations and the order insert share one transaction: either the
// order exists and stock is decremented, or neither happened.
func (s *Service) PlaceOrder(ctx context.Context, userID string, cart Cart) (Order, error) {
	// checked before touching any storage
	if len(cart) == 0 {
		return Order{}, ErrEmptyCart
	}

	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Order{}, ErrUserNotFound
		}
		return Order{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	order := Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	order.UpdatedAt = order.CreatedAt

	var acquired []*inventory.Reservation
	abort := func(cause error) (Order, error) {
		// release in reverse acquisition order, best effort; the
		// rollback is the hard guarantee for transactional stores
		for i := len(acquired) - 1; i >= 0; i-- {
			_ = tx.Release(ctx, acquired[i])
		}
		_ = tx.Rollback(ctx)
		return Order{}, cause
	}

	total := decimal.Zero
	for _, line := range cart.sortedLines() {
		res, err := tx.Reserve(ctx, line.ProductID, line.Qty)
		if err != nil {
			if !errors.Is(err, inventory.ErrProductNotFound) &&
				!errors.Is(err, inventory.ErrInsufficientStock) &&
				!errors.Is(err, inventory.ErrInvalidQuantity) {
				// an infrastructure failure, not a cart problem
				err = fmt.Errorf("%w: %v", ErrStorage, err)
			}
			return abort(err)
		}
		acquired = append(acquired, res)

		item := OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Qty:       line.Qty,
			UnitPrice: res.UnitPrice,
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.Subtotal())
	}
	order.TotalAmount = total

	if err := tx.Insert(ctx, &order); err != nil {
		return abort(fmt.Errorf("%w: %v", ErrStorage, err))
	}
	if err := tx.Commit(ctx); err != nil {
		return abort(fmt.Errorf("%w: %v", ErrStorage, err))
	}
	return order, nil
}

func (s *Service) Order(ctx context.Context, id string) (Order, error) {
	return s.Store.Order(ctx, id)
}

func (s *Service) OrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.Store.OrdersForUser(ctx, userID)
}

func (s *Service) AllOrders(ctx context.Context) ([]Order, error) {
	return s.Store.AllOrders(ctx)
}

// UpdateOrderStatus applies an administrative lifecycle transition.
// Moving to CANCELLED returns the order's quantities to stock in the
// same atomic unit as the status change.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, target string) (Order, error) {
	to, ok := ParseStatus(target)
	if !ok {
		return Order{}, ErrInvalidStatus
	}

	current, err := s.Store.Order(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(current.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	restock := to == StatusCancelled
	if err := s.Store.UpdateStatus(ctx, orderID, current.Status, to, restock); err != nil {
		return Order{}, err
	}
	return s.Store.Order(ctx, orderID)
}
