package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Brocoder07/ShopStream/internal/inventory"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx, TxLedger: inventory.TxLedger{Tx: tx}}, nil
}

type pgTx struct {
	inventory.TxLedger
	tx pgx.Tx
}

func (t *pgTx) Insert(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_amount, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)`,
		o.ID, o.UserID, o.Status, o.TotalAmount, o.CreatedAt)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, unit_price)
			VALUES ($1,$2,$3,$4)`,
			o.ID, it.ProductID, it.Qty, it.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (r *Repo) Order(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if err := r.attachItems(ctx, map[string]*Order{o.ID: &o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) OrdersForUser(ctx context.Context, userID string) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) AllOrders(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, user_id, status, total_amount, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) UpdateStatus(ctx context.Context, orderID string, from, to Status, restock bool) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1 AND status=$3`, orderID, to, from)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// either the order vanished or its status moved underneath us
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrInvalidTransition
	}

	if restock {
		if _, err := tx.Exec(ctx, `
			UPDATE products p
			SET stock = p.stock + oi.qty, updated_at = now()
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id`, orderID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) queryOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	byID := map[string]*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) attachItems(ctx context.Context, byID map[string]*Order) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, qty, unit_price
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Qty, &it.UnitPrice); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
