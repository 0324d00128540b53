package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type Provider string

const ProviderMock Provider = "mock"

// Payment is 1:1 with an order and is only written as part of the
// PENDING -> PAID transition.
type Payment struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Provider  Provider        `json:"provider"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
