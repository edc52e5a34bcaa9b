package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Product stock is mutated only through the inventory ledger and
// administrative edits; nothing else writes it.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var ErrNotFound = errors.New("product not found")

type Store interface {
	Product(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	SearchByName(ctx context.Context, q string) ([]Product, error)
	ByCategory(ctx context.Context, category string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
