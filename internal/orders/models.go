package orders

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Cart maps product id to requested quantity. Product ids are
// string-encoded integers.
type Cart map[string]int

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Status      Status          `json:"status"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItem is owned by its order and immutable after creation.
// UnitPrice is the price captured at order time; later product price
// edits do not touch it.
type OrderItem struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

type cartLine struct {
	ProductID string
	Qty       int
}

// sortedLines flattens a cart into ascending numeric product-id order.
// Map iteration order is random, and which line fails first decides
// which reservations get rolled back, so processing order has to be
// fixed.
func (c Cart) sortedLines() []cartLine {
	lines := make([]cartLine, 0, len(c))
	for id, qty := range c {
		lines = append(lines, cartLine{ProductID: id, Qty: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lessProductID(lines[i].ProductID, lines[j].ProductID)
	})
	return lines
}

func lessProductID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
