package order

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/seller"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
)

// Catalog is the product lookup plus the stock ledger. Stock mutations run in
// the caller's transaction.
type Catalog interface {
	FindOne(ctx context.Context, id string) (*product.Product, error)
	// FindMany returns the products found among ids, keyed by id.
	FindMany(ctx context.Context, ids []string) (map[string]*product.Product, error)
	DecreaseStock(ctx context.Context, tx txn.Tx, id string, qty int) error
	IncreaseStock(ctx context.Context, tx txn.Tx, id string, qty int) error
}

type SellerDirectory interface {
	FindByUserID(ctx context.Context, userID string) (*seller.Profile, error)
}

// Payments creates the payment record inside the payment transaction.
type Payments interface {
	Create(ctx context.Context, tx txn.Tx, orderID string, amount decimal.Decimal, provider payment.Provider) (*payment.Payment, error)
	Get(ctx context.Context, id string) (*payment.Payment, error)
	List(ctx context.Context) ([]payment.Payment, error)
	// ListByOrderIDs returns the payments of the given orders keyed by order id.
	ListByOrderIDs(ctx context.Context, orderIDs []string) (map[string]*payment.Payment, error)
}
