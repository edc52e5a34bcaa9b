// Package inventory is the sole authority over product stock. Every
// decrement goes through Reserve and every compensation through
// Release; no other component writes stock directly.
package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrAlreadyReleased   = errors.New("reservation already released")
)

// Reservation records one successful, not-yet-committed stock
// decrement. UnitPrice is the pricing snapshot: it is read under the
// same product lock that decided availability, so it can never reflect
// a different product state than the stock check did.
type Reservation struct {
	ProductID string
	Qty       int
	UnitPrice decimal.Decimal

	released bool
}

// Ledger performs atomic check-and-decrement per product. Reserve on
// the same product is serialized; different products do not block one
// another. Release reverses a reservation and must be called at most
// once; a second call is a programming error and reports
// ErrAlreadyReleased.
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) (*Reservation, error)
	Release(ctx context.Context, res *Reservation) error
}
