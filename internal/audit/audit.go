// Package audit records who did what to which entity. Sinks are best-effort
// from the caller's point of view: callers log a failed Record and move on.
package audit

import (
	"context"
	"errors"
	"time"
)

const (
	ActionCreateOrder       = "create_order"
	ActionUpdateOrderStatus = "update_order_status"
	ActionProcessPayment    = "process_payment"

	EntityOrder = "Order"
)

type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Fanout records each entry to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range f {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
