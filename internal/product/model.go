package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog view the order engine needs. Catalog CRUD is owned
// by the catalog service; only the stock counter is mutated here.
type Product struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"seller_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
