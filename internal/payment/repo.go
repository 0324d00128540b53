package payment

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

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Insert(ctx context.Context, tx txn.Tx, p *Payment) error {
	q, err := postgres.Conn(tx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, status, provider, reference, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.OrderID, p.Amount.StringFixed(2), string(p.Status), string(p.Provider), p.Reference, p.CreatedAt)
	if postgres.IsUniqueViolation(err, "payments_order_id_key") {
		return apperr.BusinessRule("Order %s already has a payment", p.OrderID)
	}
	return err
}

const selectPayment = `
		SELECT id::text, order_id::text, amount::text, status, provider, reference, created_at
		FROM payments`

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanPayment(r.db.QueryRow(ctx, selectPayment+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Payment with ID %s not found", id)
	}
	return p, err
}

func (r *PGRepo) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanPayment(r.db.QueryRow(ctx, selectPayment+` WHERE order_id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Payment for order %s not found", orderID)
	}
	return p, err
}

func (r *PGRepo) ListByOrderIDs(ctx context.Context, orderIDs []string) ([]Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, selectPayment+` WHERE order_id::text = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) List(ctx context.Context) ([]Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, selectPayment+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p      Payment
		amount string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &amount, &p.Status, &p.Provider, &p.Reference, &p.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("payment %s amount %q: %w", p.ID, amount, err)
	}
	return &p, nil
}
