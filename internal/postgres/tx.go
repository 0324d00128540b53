package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

// Beginner issues read-committed transactions on a dedicated pooled connection.
type Beginner struct{ pool *pgxpool.Pool }

func NewBeginner(pool *pgxpool.Pool) *Beginner { return &Beginner{pool: pool} }

func (b *Beginner) Begin(ctx context.Context) (txn.Tx, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &Tx{tx: tx, conn: conn}, nil
}

type Tx struct {
	tx   pgx.Tx
	conn *pgxpool.Conn
}

func (t *Tx) Commit(ctx context.Context) error { return mapClosed(t.tx.Commit(ctx)) }

func (t *Tx) Rollback(ctx context.Context) error { return mapClosed(t.tx.Rollback(ctx)) }

func (t *Tx) Release() {
	if t.conn != nil {
		t.conn.Release()
		t.conn = nil
	}
}

func mapClosed(err error) error {
	if errors.Is(err, pgx.ErrTxClosed) {
		return txn.ErrTxDone
	}
	return err
}

// Conn unwraps a txn.Tx issued by Beginner.
func Conn(tx txn.Tx) (pgx.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, fmt.Errorf("postgres: transaction %T was not issued by this store", tx)
	}
	return t.tx, nil
}

// IsUniqueViolation reports whether err is a unique_violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
