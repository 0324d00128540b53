// Package seller looks up seller profiles. Profile verification lives in the
// seller service; orders only need to know which profile a user owns.
package seller

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
)

type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CompanyName string    `json:"company_name"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// FindByUserID returns an apperr.ErrNotFound error when the user has no profile.
func (r *PGRepo) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Profile
	err := r.db.QueryRow(ctx, `
		SELECT id::text, user_id::text, company_name, verified, created_at
		FROM seller_profiles WHERE user_id=$1
	`, userID).Scan(&p.ID, &p.UserID, &p.CompanyName, &p.Verified, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Seller profile for user %s not found", userID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
