package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

type stubRepo struct {
	byOrder map[string]Payment
}

func newStubRepo() *stubRepo { return &stubRepo{byOrder: make(map[string]Payment)} }

func (s *stubRepo) Insert(_ context.Context, _ txn.Tx, p *Payment) error {
	if _, ok := s.byOrder[p.OrderID]; ok {
		return apperr.BusinessRule("Order %s already has a payment", p.OrderID)
	}
	s.byOrder[p.OrderID] = *p
	return nil
}

func (s *stubRepo) GetByOrderID(_ context.Context, orderID string) (*Payment, error) {
	p, ok := s.byOrder[orderID]
	if !ok {
		return nil, apperr.NotFound("Payment for order %s not found", orderID)
	}
	return &p, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	for _, p := range s.byOrder {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("Payment with ID %s not found", id)
}

func (s *stubRepo) ListByOrderIDs(_ context.Context, orderIDs []string) ([]Payment, error) {
	var out []Payment
	for _, id := range orderIDs {
		if p, ok := s.byOrder[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) List(_ context.Context) ([]Payment, error) {
	var out []Payment
	for _, p := range s.byOrder {
		out = append(out, p)
	}
	return out, nil
}

type gatewayFunc func(Charge) (Result, error)

func (f gatewayFunc) Settle(_ context.Context, c Charge) (Result, error) { return f(c) }

func TestCreate_MockGatewaySucceeds(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, map[Provider]Gateway{ProviderMock: MockGateway{}}, zaptest.NewLogger(t))
	orderID := uuid.NewString()
	amount := decimal.RequireFromString("250.50")

	p, err := svc.Create(context.Background(), nil, orderID, amount, ProviderMock)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != StatusSuccess || !p.Amount.Equal(amount) || p.OrderID != orderID || p.Reference == "" {
		t.Fatalf("payment=%+v", p)
	}
	got, err := svc.GetByOrderID(context.Background(), orderID)
	if err != nil || got == nil || got.ID != p.ID {
		t.Fatalf("stored payment=%+v err=%v", got, err)
	}
}

func TestCreate_Failures(t *testing.T) {
	unreachable := errors.New("dial tcp: connection refused")
	tests := []struct {
		name     string
		gateway  Gateway
		provider Provider
		amount   string
		wantKind error
		wantErr  error
	}{
		{
			name:     "unknown provider",
			gateway:  MockGateway{},
			provider: "paypal",
			amount:   "10",
			wantKind: apperr.ErrValidation,
		},
		{
			name:     "negative amount",
			gateway:  MockGateway{},
			provider: ProviderMock,
			amount:   "-1",
			wantKind: apperr.ErrValidation,
		},
		{
			name: "declined",
			gateway: gatewayFunc(func(Charge) (Result, error) {
				return Result{Status: StatusFailed, Reason: "insufficient funds"}, nil
			}),
			provider: ProviderMock,
			amount:   "10",
			wantKind: apperr.ErrBusinessRule,
		},
		{
			name: "provider unreachable",
			gateway: gatewayFunc(func(Charge) (Result, error) {
				return Result{}, unreachable
			}),
			provider: ProviderMock,
			amount:   "10",
			wantErr:  unreachable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := NewService(repo, map[Provider]Gateway{ProviderMock: tc.gateway}, zaptest.NewLogger(t))
			orderID := uuid.NewString()

			_, err := svc.Create(context.Background(), nil, orderID, decimal.RequireFromString(tc.amount), tc.provider)
			if tc.wantKind != nil && !errors.Is(err, tc.wantKind) {
				t.Fatalf("err=%v, want kind %v", err, tc.wantKind)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v, want %v", err, tc.wantErr)
			}
			if apperr.Kind(err) == nil && tc.wantKind != nil {
				t.Fatalf("err=%v is unclassified", err)
			}
			if len(repo.byOrder) != 0 {
				t.Fatalf("failed payment was stored")
			}
		})
	}
}

func TestGetByOrderID_NoPaymentYet(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	p, err := svc.GetByOrderID(context.Background(), uuid.NewString())
	if err != nil || p != nil {
		t.Fatalf("payment=%v err=%v, want nil, nil", p, err)
	}
}

func TestListByOrderIDs_KeysByOrder(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, map[Provider]Gateway{ProviderMock: MockGateway{}}, zaptest.NewLogger(t))
	paid, unpaid := uuid.NewString(), uuid.NewString()
	p, err := svc.Create(context.Background(), nil, paid, decimal.NewFromInt(5), ProviderMock)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.ListByOrderIDs(context.Background(), []string{paid, unpaid})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[paid] == nil || got[paid].ID != p.ID {
		t.Fatalf("payments=%v", got)
	}
	if _, ok := got[unpaid]; ok {
		t.Fatalf("unpaid order has a payment entry")
	}

	byID, err := svc.Get(context.Background(), p.ID)
	if err != nil || byID.OrderID != paid {
		t.Fatalf("get=%+v err=%v", byID, err)
	}
	if all, _ := svc.List(context.Background()); len(all) != 1 {
		t.Fatalf("list all=%d", len(all))
	}
}
