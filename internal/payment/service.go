// Package payment records payments and settles them through a provider gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

type Repository interface {
	Insert(ctx context.Context, tx txn.Tx, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	ListByOrderIDs(ctx context.Context, orderIDs []string) ([]Payment, error)
	List(ctx context.Context) ([]Payment, error)
}

type Service struct {
	repo     Repository
	gateways map[Provider]Gateway
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, gateways map[Provider]Gateway, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, gateways: gateways, log: log, now: time.Now}
}

// Create settles amount for orderID and stores the payment inside tx. A
// declined charge fails with apperr.ErrBusinessRule so the caller's whole
// transaction is discarded.
func (s *Service) Create(ctx context.Context, tx txn.Tx, orderID string, amount decimal.Decimal, provider Provider) (*Payment, error) {
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, apperr.Validation("unsupported payment provider %q", provider)
	}
	if amount.IsNegative() {
		return nil, apperr.Validation("payment amount must not be negative")
	}

	p := &Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    amount,
		Status:    StatusPending,
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}
	res, err := gw.Settle(ctx, Charge{OrderID: orderID, Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("settle with %s: %w", provider, err)
	}
	p.Status = res.Status
	p.Reference = res.Reference
	if p.Status != StatusSuccess {
		s.log.Info("payment declined",
			zap.String("order_id", orderID), zap.String("provider", string(provider)), zap.String("reason", res.Reason))
		return nil, apperr.BusinessRule("Payment declined by %s: %s", provider, res.Reason)
	}

	if err := s.repo.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByOrderID returns nil without error when the order has no payment yet.
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	p, err := s.repo.GetByOrderID(ctx, orderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Payment, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Payment{}
	}
	return out, nil
}

// ListByOrderIDs keys the payments of orderIDs by order id. Orders without a
// payment are absent from the map.
func (s *Service) ListByOrderIDs(ctx context.Context, orderIDs []string) (map[string]*Payment, error) {
	out := make(map[string]*Payment, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	list, err := s.repo.ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].OrderID] = &list[i]
	}
	return out, nil
}
