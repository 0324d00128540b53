package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

func seedProduct(s *Store, stock int) string {
	id := uuid.NewString()
	s.PutProduct(product.Product{ID: id, Name: "Brake pad", Price: decimal.NewFromInt(100), Stock: stock})
	return id
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	p, ok := s.Product(id)
	if !ok {
		t.Fatalf("product %s missing", id)
	}
	return p.Stock
}

func TestDecreaseStock_NeverNegative(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		stock   int
		qty     int
		wantErr error
		left    int
	}{
		{"less than stock", 5, 3, nil, 2},
		{"exactly stock", 5, 5, nil, 0},
		{"more than stock", 5, 6, apperr.ErrStock, 5},
		{"zero quantity", 5, 0, apperr.ErrValidation, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			id := seedProduct(s, tc.stock)

			tx, _ := s.Begin(ctx)
			err := s.Products().DecreaseStock(ctx, tx, id, tc.qty)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				_ = tx.Commit(ctx)
			} else {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				_ = tx.Rollback(ctx)
			}
			tx.Release()

			if got := stockOf(t, s, id); got != tc.left {
				t.Fatalf("stock=%d, want %d", got, tc.left)
			}
		})
	}
}

func TestTx_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedProduct(s, 4)

	tx, _ := s.Begin(ctx)
	if err := s.Products().DecreaseStock(ctx, tx, id, 3); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if got := stockOf(t, s, id); got != 4 {
		t.Fatalf("uncommitted write visible: stock=%d", got)
	}
	_ = tx.Rollback(ctx)
	tx.Release()

	if got := stockOf(t, s, id); got != 4 {
		t.Fatalf("stock=%d after rollback, want 4", got)
	}
}

func TestTx_UseAfterCommitFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedProduct(s, 4)

	tx, _ := s.Begin(ctx)
	_ = tx.Commit(ctx)
	if err := s.Products().IncreaseStock(ctx, tx, id, 1); !errors.Is(err, txn.ErrTxDone) {
		t.Fatalf("err=%v, want ErrTxDone", err)
	}
	if err := tx.Rollback(ctx); !errors.Is(err, txn.ErrTxDone) {
		t.Fatalf("rollback after commit err=%v", err)
	}
	tx.Release()
	tx.Release() // idempotent

	// the writer lock was released: a new transaction can begin
	tx2, _ := s.Begin(ctx)
	tx2.Release()
}
