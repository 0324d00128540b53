// Package txn runs multi-step writes as one all-or-nothing unit.
//
// A Coordinator begins a transaction, hands it to a callback, and then either
// commits (callback returned nil) or rolls back (callback returned an error or
// panicked). The underlying resource is released on every exit path. Errors
// produced by the callback are returned to the caller unchanged.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/metrics"
)

// Tx is a transactional execution context issued by a Beginner. Writes issued
// through it stay invisible to other readers until Commit.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Release returns the underlying resource. It must be safe to call after
	// Commit or Rollback and is called exactly once per Tx.
	Release()
}

type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// ErrTxDone is returned by Tx implementations used after Commit or Rollback.
var ErrTxDone = errors.New("txn: transaction already finished")

type Coordinator struct {
	db      Beginner
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewCoordinator(db Beginner, log *zap.Logger, m *metrics.Metrics) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{db: db, log: log, metrics: m}
}

// Run executes fn inside a single transaction named scope.
func (c *Coordinator) Run(ctx context.Context, scope string, fn func(ctx context.Context, tx Tx) error) (err error) {
	ctx, span := otel.Tracer("marketplace/txn").Start(ctx, "tx "+scope)
	span.SetAttributes(attribute.String("tx.scope", scope))
	start := time.Now()
	outcome := "commit"
	defer func() {
		c.metrics.ObserveTx(scope, outcome, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := c.db.Begin(ctx)
	if err != nil {
		outcome = "begin_error"
		return fmt.Errorf("begin %s: %w", scope, err)
	}
	defer tx.Release()

	// Rollback must run even when ctx was canceled mid-scope.
	rbCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			outcome = "panic"
			c.rollback(rbCtx, scope, tx)
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		outcome = "rollback"
		c.rollback(rbCtx, scope, tx)
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		outcome = "commit_error"
		c.rollback(rbCtx, scope, tx)
		return fmt.Errorf("commit %s: %w", scope, err)
	}
	return nil
}

func (c *Coordinator) rollback(ctx context.Context, scope string, tx Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, ErrTxDone) {
		c.log.Warn("rollback failed", zap.String("scope", scope), zap.Error(err))
	}
}
