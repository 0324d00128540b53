package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/audit"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/order"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/seller"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

// Orders implements order.Repository.
type Orders struct{ s *Store }

func (r *Orders) Create(_ context.Context, tx txn.Tx, o *order.Order) error {
	st, err := staged(tx)
	if err != nil {
		return err
	}
	if _, exists := st.orders[o.ID]; exists {
		return apperr.BusinessRule("Order %s already exists", o.ID)
	}
	header := *o
	header.Items, header.Payment = nil, nil
	st.orders[o.ID] = header

	items := make([]order.Item, len(o.Items))
	for i, it := range o.Items {
		it.OrderID = o.ID
		it.Product = nil
		items[i] = it
	}
	st.items[o.ID] = items
	return nil
}

func (r *Orders) GetByID(_ context.Context, id string) (*order.Order, error) {
	var (
		o  order.Order
		ok bool
	)
	r.s.read(func(st *state) {
		if o, ok = st.orders[id]; ok {
			o.Items = append([]order.Item(nil), st.items[id]...)
		}
	})
	if !ok {
		return nil, apperr.NotFound("Order with ID %s not found", id)
	}
	return &o, nil
}

func (r *Orders) List(_ context.Context, f order.ListFilter) ([]order.Order, error) {
	var out []order.Order
	r.s.read(func(st *state) {
		for id, o := range st.orders {
			if f.BuyerID != "" && o.BuyerID != f.BuyerID {
				continue
			}
			if f.SellerID != "" && !soldBy(st, id, f.SellerID) {
				continue
			}
			o.Items = append([]order.Item(nil), st.items[id]...)
			out = append(out, o)
		}
	})
	sortOrders(out)
	return out, nil
}

func soldBy(st *state, orderID, sellerID string) bool {
	for _, it := range st.items[orderID] {
		if p, ok := st.products[it.ProductID]; ok && p.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (r *Orders) UpdateStatus(_ context.Context, tx txn.Tx, id string, from, to order.Status) error {
	st, err := staged(tx)
	if err != nil {
		return err
	}
	o, ok := st.orders[id]
	if !ok {
		return apperr.NotFound("Order with ID %s not found", id)
	}
	if o.Status != from {
		return apperr.BusinessRule("Order %s is no longer %s", id, from)
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	st.orders[id] = o
	return nil
}

// Products implements order.Catalog.
type Products struct{ s *Store }

func (r *Products) FindOne(_ context.Context, id string) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.s.read(func(st *state) { p, ok = st.products[id] })
	if !ok {
		return nil, apperr.NotFound("Product with ID %s not found", id)
	}
	return &p, nil
}

func (r *Products) FindMany(_ context.Context, ids []string) (map[string]*product.Product, error) {
	out := make(map[string]*product.Product, len(ids))
	r.s.read(func(st *state) {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = &p
			}
		}
	})
	return out, nil
}

func (r *Products) DecreaseStock(_ context.Context, tx txn.Tx, id string, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive, got %d", qty)
	}
	st, err := staged(tx)
	if err != nil {
		return err
	}
	p, ok := st.products[id]
	if !ok {
		return apperr.NotFound("Product with ID %s not found", id)
	}
	if qty > p.Stock {
		return apperr.Stock("Insufficient stock for product %s: requested %d, available %d", p.Name, qty, p.Stock)
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	st.products[id] = p
	return nil
}

func (r *Products) IncreaseStock(_ context.Context, tx txn.Tx, id string, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive, got %d", qty)
	}
	st, err := staged(tx)
	if err != nil {
		return err
	}
	p, ok := st.products[id]
	if !ok {
		return apperr.NotFound("Product with ID %s not found", id)
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	st.products[id] = p
	return nil
}

// Payments implements payment.Repository.
type Payments struct{ s *Store }

func (r *Payments) Insert(_ context.Context, tx txn.Tx, p *payment.Payment) error {
	st, err := staged(tx)
	if err != nil {
		return err
	}
	if _, exists := st.payments[p.OrderID]; exists {
		return apperr.BusinessRule("Order %s already has a payment", p.OrderID)
	}
	st.payments[p.OrderID] = *p
	return nil
}

func (r *Payments) GetByOrderID(_ context.Context, orderID string) (*payment.Payment, error) {
	var (
		p  payment.Payment
		ok bool
	)
	r.s.read(func(st *state) { p, ok = st.payments[orderID] })
	if !ok {
		return nil, apperr.NotFound("Payment for order %s not found", orderID)
	}
	return &p, nil
}

func (r *Payments) GetByID(_ context.Context, id string) (*payment.Payment, error) {
	var (
		p  payment.Payment
		ok bool
	)
	r.s.read(func(st *state) {
		for _, sp := range st.payments {
			if sp.ID == id {
				p, ok = sp, true
				return
			}
		}
	})
	if !ok {
		return nil, apperr.NotFound("Payment with ID %s not found", id)
	}
	return &p, nil
}

func (r *Payments) ListByOrderIDs(_ context.Context, orderIDs []string) ([]payment.Payment, error) {
	var out []payment.Payment
	r.s.read(func(st *state) {
		for _, id := range orderIDs {
			if p, ok := st.payments[id]; ok {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (r *Payments) List(_ context.Context) ([]payment.Payment, error) {
	var out []payment.Payment
	r.s.read(func(st *state) {
		for _, p := range st.payments {
			out = append(out, p)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Sellers implements order.SellerDirectory.
type Sellers struct{ s *Store }

func (r *Sellers) FindByUserID(_ context.Context, userID string) (*seller.Profile, error) {
	var (
		p  seller.Profile
		ok bool
	)
	r.s.read(func(st *state) {
		for _, sp := range st.sellers {
			if sp.UserID == userID {
				p, ok = sp, true
				return
			}
		}
	})
	if !ok {
		return nil, apperr.NotFound("Seller profile for user %s not found", userID)
	}
	return &p, nil
}

// Users implements user.Directory.
type Users struct{ s *Store }

func (r *Users) GetByID(_ context.Context, id string) (*user.User, error) {
	var (
		u  user.User
		ok bool
	)
	r.s.read(func(st *state) { u, ok = st.users[id] })
	if !ok {
		return nil, apperr.NotFound("User with ID %s not found", id)
	}
	return &u, nil
}

// Audit implements audit.Sink.
type Audit struct{ s *Store }

func (r *Audit) Record(_ context.Context, e audit.Entry) error {
	r.s.auditMu.Lock()
	defer r.s.auditMu.Unlock()
	r.s.audit = append(r.s.audit, e)
	return nil
}
