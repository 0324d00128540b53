package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Charge struct {
	OrderID string
	Amount  decimal.Decimal
}

type Result struct {
	Status    Status
	Reference string
	Reason    string
}

// Gateway settles a charge with a payment provider. A declined charge is a
// Result with StatusFailed; an error means the provider could not be reached.
type Gateway interface {
	Settle(ctx context.Context, c Charge) (Result, error)
}

// MockGateway approves every charge.
type MockGateway struct{}

func (MockGateway) Settle(_ context.Context, _ Charge) (Result, error) {
	return Result{Status: StatusSuccess, Reference: "mock_" + uuid.NewString()}, nil
}
