package inventory

import (
	"context"
	"errors"

	"github.com/Brocoder07/ShopStream/internal/catalog"
)

// MemoryLedger applies reservations directly to an in-memory catalog.
// The per-product lock in catalog.MemoryStore is held for the whole
// check-and-decrement, which gives the same serialization the row lock
// gives the Postgres ledger.
type MemoryLedger struct {
	Catalog *catalog.MemoryStore
}

func (l *MemoryLedger) Reserve(_ context.Context, productID string, qty int) (*Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var res *Reservation
	err := l.Catalog.WithProduct(productID, func(p *catalog.Product) error {
		if p.Stock < qty {
			return ErrInsufficientStock
		}
		p.Stock -= qty
		res = &Reservation{ProductID: productID, Qty: qty, UnitPrice: p.Price}
		return nil
	})
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (l *MemoryLedger) Release(_ context.Context, res *Reservation) error {
	if res.released {
		return ErrAlreadyReleased
	}
	err := l.Catalog.WithProduct(res.ProductID, func(p *catalog.Product) error {
		p.Stock += res.Qty
		return nil
	})
	if err != nil {
		return err
	}
	res.released = true
	return nil
}
