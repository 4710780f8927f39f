// Package memory is an in-process store with the relational guarantees the domain
// packages rely on: unique keys, restrict/cascade/set-null deletes, and
// all-or-nothing transactions. A single lock serializes every operation, so a
// transaction runs against a private copy that replaces the live state on commit.
// Every write copies the whole state, so the store backs tests and local development.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/customers"
	"storefront/internal/tags"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartItemRow struct {
	ID        int64
	CartID    uuid.UUID
	ProductID int64
	Quantity  int
}

type orderRow struct {
	ID            int64
	CustomerID    int64
	PlacedAt      time.Time
	PaymentStatus string
}

type orderItemRow struct {
	ID        int64
	OrderID   int64
	ProductID int64
	UnitPrice decimal.Decimal
	Quantity  int
}

type likeRow struct {
	ID     int64
	UserID string
	Target tags.Target
}

type sequences struct {
	product, collection, promotion, review int64
	cartItem, customer, order, orderItem   int64
	tag, taggedItem, like                  int64
}

type state struct {
	seq sequences

	products    map[int64]catalog.Product
	collections map[int64]catalog.Collection
	promotions  map[int64]catalog.Promotion
	reviews     map[int64]catalog.Review

	carts     map[uuid.UUID]time.Time
	cartItems map[int64]cartItemRow

	customers map[int64]customers.Customer

	orders     map[int64]orderRow
	orderItems map[int64]orderItemRow

	tags        map[int64]tags.Tag
	taggedItems map[int64]tags.TaggedItem
	likes       map[int64]likeRow
}

func newState() *state {
	return &state{
		products:    map[int64]catalog.Product{},
		collections: map[int64]catalog.Collection{},
		promotions:  map[int64]catalog.Promotion{},
		reviews:     map[int64]catalog.Review{},
		carts:       map[uuid.UUID]time.Time{},
		cartItems:   map[int64]cartItemRow{},
		customers:   map[int64]customers.Customer{},
		orders:      map[int64]orderRow{},
		orderItems:  map[int64]orderItemRow{},
		tags:        map[int64]tags.Tag{},
		taggedItems: map[int64]tags.TaggedItem{},
		likes:       map[int64]likeRow{},
	}
}

// clone copies every table. Row values are never mutated in place, so copying the
// maps is enough to isolate a transaction.
func (s *state) clone() *state {
	return &state{
		seq:         s.seq,
		products:    maps.Clone(s.products),
		collections: maps.Clone(s.collections),
		promotions:  maps.Clone(s.promotions),
		reviews:     maps.Clone(s.reviews),
		carts:       maps.Clone(s.carts),
		cartItems:   maps.Clone(s.cartItems),
		customers:   maps.Clone(s.customers),
		orders:      maps.Clone(s.orders),
		orderItems:  maps.Clone(s.orderItems),
		tags:        maps.Clone(s.tags),
		taggedItems: maps.Clone(s.taggedItems),
		likes:       maps.Clone(s.likes),
	}
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// read runs fn under the store lock.
func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// write runs fn against a copy of the state and keeps the copy only if fn succeeds
// and the context is still live.
func (s *Store) write(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = next
	return nil
}
