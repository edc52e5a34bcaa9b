package orders

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStorage wraps transaction begin/commit/persist failures.
	ErrStorage = errors.New("storage failure")
)
