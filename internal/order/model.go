package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", apperr.Validation("unknown order status %q", s)
	}
	return st, nil
}

type Order struct {
	ID         string           `json:"id"`
	BuyerID    string           `json:"buyer_id"`
	Status     Status           `json:"status"`
	TotalPrice decimal.Decimal  `json:"total_price"` // fixed at creation
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Items      []Item           `json:"items"`
	Payment    *payment.Payment `json:"payment,omitempty"`
}

// Item is an immutable price snapshot of one product in one order.
type Item struct {
	ID        string           `json:"id"`
	OrderID   string           `json:"order_id"`
	ProductID string           `json:"product_id"`
	Price     decimal.Decimal  `json:"price"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums price x quantity over items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   user.Role
}

// ListFilter narrows List. Empty fields do not filter.
type ListFilter struct {
	BuyerID  string
	SellerID string
}
