// Package memstore is a process-local store implementing every repository of
// the order engine plus txn.Beginner.
//
// Transactions are serialized: Begin takes the writer lock and works on a
// private copy of the committed state; Commit publishes the copy. Readers
// outside a transaction only ever see committed state.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/audit"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/order"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/seller"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/txn"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

type state struct {
	users    map[string]user.User
	sellers  map[string]seller.Profile // by profile id
	products map[string]product.Product
	orders   map[string]order.Order // header only
	items    map[string][]order.Item
	payments map[string]payment.Payment // by order id
}

func newState() *state {
	return &state{
		users:    make(map[string]user.User),
		sellers:  make(map[string]seller.Profile),
		products: make(map[string]product.Product),
		orders:   make(map[string]order.Order),
		items:    make(map[string][]order.Item),
		payments: make(map[string]payment.Payment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.sellers {
		c.sellers[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]order.Item(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

type Store struct {
	writer    sync.Mutex   // held for the lifetime of a transaction
	mu        sync.RWMutex // guards committed
	committed *state

	auditMu sync.Mutex
	audit   []audit.Entry
}

func New() *Store { return &Store{committed: newState()} }

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.committed)
}

// apply runs fn as its own committed transaction.
func (s *Store) apply(fn func(st *state)) {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.committed)
}

func (s *Store) Begin(_ context.Context) (txn.Tx, error) {
	s.writer.Lock()
	s.mu.RLock()
	staged := s.committed.clone()
	s.mu.RUnlock()
	return &Tx{store: s, staged: staged}, nil
}

type Tx struct {
	store    *Store
	staged   *state
	done     bool
	released bool
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return txn.ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.committed = t.staged
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return txn.ErrTxDone
	}
	t.done = true
	t.staged = nil
	return nil
}

func (t *Tx) Release() {
	if t.released {
		return
	}
	t.released = true
	t.done = true
	t.store.writer.Unlock()
}

func staged(tx txn.Tx) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil || t.done {
		return nil, txn.ErrTxDone
	}
	return t.staged, nil
}

// Seeding helpers. Each runs as its own committed write.

func (s *Store) PutUser(u user.User) {
	s.apply(func(st *state) { st.users[u.ID] = u })
}

func (s *Store) PutSeller(p seller.Profile) {
	s.apply(func(st *state) { st.sellers[p.ID] = p })
}

func (s *Store) PutProduct(p product.Product) {
	s.apply(func(st *state) { st.products[p.ID] = p })
}

// Product returns the committed product.
func (s *Store) Product(id string) (product.Product, bool) {
	var (
		p  product.Product
		ok bool
	)
	s.read(func(st *state) { p, ok = st.products[id] })
	return p, ok
}

func (s *Store) AuditEntries() []audit.Entry {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	return append([]audit.Entry(nil), s.audit...)
}

func (s *Store) Orders() *Orders     { return &Orders{s: s} }
func (s *Store) Products() *Products { return &Products{s: s} }
func (s *Store) Payments() *Payments { return &Payments{s: s} }
func (s *Store) Sellers() *Sellers   { return &Sellers{s: s} }
func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Audit() *Audit       { return &Audit{s: s} }

func sortOrders(out []order.Order) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
