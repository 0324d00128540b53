package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/audit"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/metrics"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

type Deps struct {
	Orders   Repository
	Catalog  Catalog
	Payments Payments
	Sellers  SellerDirectory
	Audit    audit.Sink
	Tx       *txn.Coordinator
	Log      *zap.Logger
	Metrics  *metrics.Metrics
}

type Option func(*Service)

// WithRestockOnCancel returns the stock taken at payment when a paid order
// is canceled, in the same transaction as the status change.
func WithRestockOnCancel(on bool) Option {
	return func(s *Service) { s.restockOnCancel = on }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service orchestrates order creation, status transitions and payment.
type Service struct {
	orders   Repository
	catalog  Catalog
	payments Payments
	sellers  SellerDirectory
	audit    audit.Sink
	tx       *txn.Coordinator
	log      *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	restockOnCancel bool
	now             func() time.Time
}

func NewService(d Deps, opts ...Option) *Service {
	s := &Service{
		orders:   d.Orders,
		catalog:  d.Catalog,
		payments: d.Payments,
		sellers:  d.Sellers,
		audit:    d.Audit,
		tx:       d.Tx,
		log:      d.Log,
		metrics:  d.Metrics,
		tracer:   otel.Tracer("marketplace/order"),
		now:      time.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prices every line from the catalog and stores the order with its
// items in one transaction. The stock check here is advisory: nothing is
// reserved, so it can pass for several orders competing for the same units.
func (s *Service) Create(ctx context.Context, buyerID string, lines []CreateOrderItem) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.Create", trace.WithAttributes(attribute.Int("order.lines", len(lines))))
	defer endSpan(span, &err)

	if buyerID == "" {
		return nil, apperr.Validation("buyer is required")
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}

	// Pricing and the stock check read the catalog outside the transaction:
	// the check is advisory and the scope below holds a connection of its own.
	items := make([]Item, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("item %d: quantity must be positive", i+1)
		}
		if _, err := uuid.Parse(line.ProductID); err != nil {
			return nil, apperr.Validation("item %d: invalid product id %q", i+1, line.ProductID)
		}
		p, err := s.catalog.FindOne(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if line.Quantity > p.Stock {
			return nil, apperr.Validation("Insufficient stock for product %s", p.Name)
		}
		items = append(items, Item{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  line.Quantity,
			Product:   p,
		})
	}

	now := s.now().UTC()
	o := &Order{
		ID:         uuid.NewString(),
		BuyerID:    buyerID,
		Status:     StatusPending,
		TotalPrice: Total(items),
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      items,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	err = s.tx.Run(ctx, "order.create", func(ctx context.Context, tx txn.Tx) error {
		return s.orders.Create(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	s.record(ctx, buyerID, audit.ActionCreateOrder, o.ID)
	s.log.Info("order created",
		zap.String("order_id", o.ID), zap.String("buyer_id", buyerID),
		zap.String("total_price", o.TotalPrice.StringFixed(2)), zap.Int("items", len(o.Items)))

	// The order is committed; a failed read-back must not look like a failed create.
	stored, err := s.Get(ctx, o.ID)
	if err != nil {
		s.log.Warn("order read-back failed", zap.String("order_id", o.ID), zap.Error(err))
		return o, nil
	}
	return stored, nil
}

// Get returns the order with items, their products and the payment, if any.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Order with ID %s not found", id)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns the orders visible to actor: a buyer's own orders, the orders
// containing a seller's products, or every order for an admin.
func (s *Service) List(ctx context.Context, actor Actor) ([]Order, error) {
	var f ListFilter
	switch actor.Role {
	case user.RoleBuyer:
		f.BuyerID = actor.UserID
	case user.RoleSeller:
		profile, err := s.sellers.FindByUserID(ctx, actor.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			return []Order{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.SellerID = profile.ID
	case user.RoleAdmin:
	default:
		return nil, apperr.Forbidden("role %q may not list orders", actor.Role)
	}

	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := s.hydrate(ctx, ptrs); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// UpdateStatus applies a role-checked status transition. It touches neither
// payments nor stock, except for the optional restock on cancellation.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, actor Actor) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id), attribute.String("order.to", string(to)), attribute.String("actor.role", string(actor.Role))))
	defer endSpan(span, &err)

	if _, ok := transitions[to]; !ok {
		return nil, apperr.Validation("unknown order status %q", to)
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.related(ctx, o, actor)
	if err != nil {
		return nil, err
	}
	if err := Decide(o.Status, to, actor.Role, related); err != nil {
		return nil, err
	}

	from := o.Status
	// Only a paid order that went through ProcessPayment took stock; an admin
	// who set PAID directly left stock untouched.
	restock := s.restockOnCancel && from == StatusPaid && to == StatusCanceled && o.Payment != nil
	err = s.tx.Run(ctx, "order.status", func(ctx context.Context, tx txn.Tx) error {
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, from, to); err != nil {
			return err
		}
		if !restock {
			return nil
		}
		for _, l := range stockLines(o.Items) {
			if err := s.catalog.IncreaseStock(ctx, tx, l.productID, l.qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if actor.Role == user.RoleAdmin && to == StatusPaid {
		s.log.Warn("order marked paid without a payment", zap.String("order_id", o.ID), zap.String("admin_id", actor.UserID))
	}
	s.metrics.Transition(string(from), string(to))
	s.record(ctx, actor.UserID, audit.ActionUpdateOrderStatus, o.ID)
	s.log.Info("order status updated",
		zap.String("order_id", o.ID), zap.String("from", string(from)), zap.String("to", string(to)),
		zap.String("actor_id", actor.UserID), zap.Bool("restocked", restock))
	return s.Get(ctx, o.ID)
}

// ProcessPayment pays a pending order. Payment creation, the move to PAID and
// the stock decrement of every item commit together or not at all.
func (s *Service) ProcessPayment(ctx context.Context, orderID string, provider payment.Provider, buyerID string) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ProcessPayment", trace.WithAttributes(
		attribute.String("order.id", orderID), attribute.String("payment.provider", string(provider))))
	defer endSpan(span, &err)

	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, apperr.Forbidden("You can only pay for your own orders")
	}
	if o.Status != StatusPending {
		return nil, apperr.BusinessRule("Order is not in pending status")
	}

	err = s.tx.Run(ctx, "order.payment", func(ctx context.Context, tx txn.Tx) error {
		if _, err := s.payments.Create(ctx, tx, o.ID, o.TotalPrice, provider); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, StatusPending, StatusPaid); err != nil {
			return err
		}
		for _, l := range stockLines(o.Items) {
			if err := s.catalog.DecreaseStock(ctx, tx, l.productID, l.qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrStock) {
			s.metrics.StockRejected()
		}
		s.metrics.Payment(string(provider), "failed")
		return nil, err
	}

	s.metrics.Payment(string(provider), "success")
	s.metrics.Transition(string(StatusPending), string(StatusPaid))
	s.record(ctx, buyerID, audit.ActionProcessPayment, o.ID)
	s.log.Info("order paid",
		zap.String("order_id", o.ID), zap.String("provider", string(provider)),
		zap.String("amount", o.TotalPrice.StringFixed(2)))
	return s.Get(ctx, o.ID)
}

// GetPayment returns a payment to an admin or to the buyer of its order.
func (s *Service) GetPayment(ctx context.Context, id string, actor Actor) (*payment.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Payment with ID %s not found", id)
	}
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == user.RoleAdmin {
		return p, nil
	}
	o, err := s.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID {
		return nil, apperr.Forbidden("You can only view payments for your own orders")
	}
	return p, nil
}

// ListPayments returns every payment, newest first. Admins only.
func (s *Service) ListPayments(ctx context.Context, actor Actor) ([]payment.Payment, error) {
	if actor.Role != user.RoleAdmin {
		return nil, apperr.Forbidden("Only admins can list payments")
	}
	return s.payments.List(ctx)
}

// related reports whether actor owns o (buyer) or sells one of its products (seller).
func (s *Service) related(ctx context.Context, o *Order, actor Actor) (bool, error) {
	switch actor.Role {
	case user.RoleBuyer:
		return o.BuyerID == actor.UserID, nil
	case user.RoleSeller:
		profile, err := s.sellers.FindByUserID(ctx, actor.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		for _, it := range o.Items {
			if it.Product != nil && it.Product.SellerID == profile.ID {
				return true, nil
			}
		}
		return false, nil
	case user.RoleAdmin:
		return true, nil
	}
	return false, nil
}

// hydrate loads the products of every item and the payment of every order
// with one batched lookup each.
func (s *Service) hydrate(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	var (
		productIDs []string
		orderIDs   = make([]string, 0, len(orders))
		seen       = make(map[string]bool)
	)
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		for _, it := range o.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				productIDs = append(productIDs, it.ProductID)
			}
		}
	}

	products, err := s.catalog.FindMany(ctx, productIDs)
	if err != nil {
		return err
	}
	payments, err := s.payments.ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return err
	}
	for _, o := range orders {
		for i := range o.Items {
			o.Items[i].Product = products[o.Items[i].ProductID]
		}
		o.Payment = payments[o.ID]
	}
	return nil
}

// record is best-effort: a failing audit sink never fails the operation.
func (s *Service) record(ctx context.Context, userID, action, entityID string) {
	if s.audit == nil {
		return
	}
	e := audit.Entry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		EntityKind: audit.EntityOrder,
		EntityID:   entityID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.metrics.AuditFailed()
		s.log.Warn("audit record failed",
			zap.String("action", action), zap.String("entity_id", entityID), zap.Error(err))
	}
}

type stockLine struct {
	productID string
	qty       int
}

// stockLines merges items per product and sorts by product id so concurrent
// payments always lock product rows in the same order.
func stockLines(items []Item) []stockLine {
	qty := make(map[string]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}
	out := make([]stockLine, 0, len(qty))
	for id, q := range qty {
		out = append(out, stockLine{productID: id, qty: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
