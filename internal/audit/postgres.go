package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSink struct{ db *pgxpool.Pool }

func NewPGSink(db *pgxpool.Pool) *PGSink { return &PGSink{db: db} }

func (s *PGSink) Record(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity, entity_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.ID, e.UserID, e.Action, e.EntityKind, e.EntityID, e.CreatedAt)
	return err
}
