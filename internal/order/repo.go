package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/postgres"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

type Repository interface {
	// Create writes the header and all items of o.
	Create(ctx context.Context, tx txn.Tx, o *Order) error
	// GetByID returns the header with its items.
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	// UpdateStatus moves the order from one status to another; it fails with
	// apperr.ErrBusinessRule when the stored status is no longer from.
	UpdateStatus(ctx context.Context, tx txn.Tx, id string, from, to Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, tx txn.Tx, o *Order) error {
	q, err := postgres.Conn(tx)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `
    INSERT INTO orders (id, buyer_id, status, total_price, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, o.ID, o.BuyerID, string(o.Status), o.TotalPrice.StringFixed(2), o.CreatedAt, o.UpdatedAt); err != nil {
		return err
	}

	for i, it := range o.Items {
		if _, err := q.Exec(ctx, `
      INSERT INTO order_items (id, order_id, line_no, product_id, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, it.ID, o.ID, i+1, it.ProductID, it.Quantity, it.Price.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
    SELECT id::text,buyer_id::text,status,total_price::text,created_at,updated_at
    FROM orders WHERE id=$1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Order with ID %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT o.id::text,o.buyer_id::text,o.status,o.total_price::text,o.created_at,o.updated_at
    FROM orders o
    WHERE ($1 = '' OR o.buyer_id::text = $1)
      AND ($2 = '' OR EXISTS (
            SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
            WHERE oi.order_id = o.id AND p.seller_id::text = $2))
    ORDER BY o.created_at DESC
  `, f.BuyerID, f.SellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []Order
		ids []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, tx txn.Tx, id string, from, to Status) error {
	q, err := postgres.Conn(tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `
    UPDATE orders
    SET status = $3, updated_at = NOW()
    WHERE id = $1 AND status = $2
  `, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.BusinessRule("Order %s is no longer %s", id, from)
	}
	return nil
}

func (r *PGRepo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id::text, order_id::text, product_id::text, quantity, price::text
    FROM order_items
    WHERE order_id::text = ANY($1)
    ORDER BY order_id, line_no
  `, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order item %s price %q: %w", it.ID, price, err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		total string
	)
	if err := row.Scan(&o.ID, &o.BuyerID, &o.Status, &total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total %q: %w", o.ID, total, err)
	}
	return &o, nil
}
