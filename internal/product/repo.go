// Package product provides catalog lookups and the stock ledger over PostgreSQL.
package product

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

func (r *PGRepo) FindOne(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		p     Product
		price string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id::text, seller_id::text, name, price::text, stock, is_active, created_at, updated_at
		FROM products WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&p.ID, &p.SellerID, &p.Name, &price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Product with ID %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %s price %q: %w", id, price, err)
	}
	return &p, nil
}

func (r *PGRepo) FindMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	out := make(map[string]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id::text, seller_id::text, name, price::text, stock, is_active, created_at, updated_at
		FROM products WHERE id::text = ANY($1) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p     Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

// DecreaseStock takes a row lock on the product, so concurrent payments that
// share a product serialize here and each sees the stock left by the other.
func (r *PGRepo) DecreaseStock(ctx context.Context, tx txn.Tx, id string, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive, got %d", qty)
	}
	q, err := postgres.Conn(tx)
	if err != nil {
		return err
	}
	var (
		name  string
		stock int
	)
	err = q.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Product with ID %s not found", id)
	}
	if err != nil {
		return err
	}
	if qty > stock {
		return apperr.Stock("Insufficient stock for product %s: requested %d, available %d", name, qty, stock)
	}
	_, err = q.Exec(ctx, `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock-qty)
	return err
}

// IncreaseStock is the compensating restock.
func (r *PGRepo) IncreaseStock(ctx context.Context, tx txn.Tx, id string, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive, got %d", qty)
	}
	q, err := postgres.Conn(tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product with ID %s not found", id)
	}
	return nil
}
