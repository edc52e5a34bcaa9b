package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TxLedger runs reserve/release inside a caller-owned transaction, so
// the decrements commit or roll back together with the order rows. The
// row lock taken by FOR UPDATE serializes concurrent reserves on the
// same product.
type TxLedger struct{ Tx pgx.Tx }

func (l TxLedger) Reserve(ctx context.Context, productID string, qty int) (*Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var stock int
	var price decimal.Decimal
	err := l.Tx.QueryRow(ctx,
		`SELECT stock, price FROM products WHERE id=$1 FOR UPDATE`, productID,
	).Scan(&stock, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if stock < qty {
		return nil, ErrInsufficientStock
	}

	if _, err := l.Tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`,
		productID, qty); err != nil {
		return nil, err
	}
	return &Reservation{ProductID: productID, Qty: qty, UnitPrice: price}, nil
}

func (l TxLedger) Release(ctx context.Context, res *Reservation) error {
	if res.released {
		return ErrAlreadyReleased
	}
	if _, err := l.Tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`,
		res.ProductID, res.Qty); err != nil {
		return err
	}
	res.released = true
	return nil
}
