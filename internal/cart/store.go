// Package cart holds the buyer's cart: the persisted store, the stock check
// and the operations that mutate it.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/safar/agrocart/internal/notify"
	"github.com/safar/agrocart/internal/storage"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart document is persisted under.
const StorageKey = "cart"

// Store is the single source of truth for cart contents. All mutations are
// serialized; the in-memory state stays authoritative when persistence fails.
type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	notifier notify.Notifier
	logger   *slog.Logger

	items    Items
	subtotal decimal.Decimal
	session  uint64
}

// Load restores the persisted cart. It never fails: unreadable or malformed
// data yields an empty cart.
func Load(ctx context.Context, st storage.Storage, notifier notify.Notifier, logger *slog.Logger) *Store {
	s := &Store{
		storage:  st,
		notifier: notifier,
		logger:   logger,
		session:  1,
	}

	data, err := st.Load(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.Error("load cart from storage", "error", err)
	default:
		s.items = decodeItems(data, logger)
	}

	s.subtotal = s.items.subtotal(logger)
	return s
}

func (s *Store) Items() Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.clone()
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalQuantity()
}

func (s *Store) QuantityOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.QuantityOf(productID)
}

// Session identifies the current cart session; it changes on every clear.
func (s *Store) Session() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Snapshot is a consistent read of the cart.
type Snapshot struct {
	Items    Items
	Subtotal decimal.Decimal
	Session  uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Items: s.items.clone(), Subtotal: s.subtotal, Session: s.session}
}

// mutate runs fn on a copy of the items under the store lock. When fn reports
// success the copy replaces the cart, the subtotal is recomputed and the cart
// is persisted.
func (s *Store) mutate(ctx context.Context, fn func(Items) (Items, Result)) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, res := fn(s.items.clone())
	if !res.OK || res.unchanged {
		return res
	}

	s.items = next
	s.subtotal = s.items.subtotal(s.logger)
	s.persist(ctx)
	return res
}

// clear empties the cart, drops the persisted record and starts a new session.
func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.subtotal = decimal.Zero
	s.session++

	if err := s.storage.Remove(ctx, StorageKey); err != nil {
		s.logger.Error("remove cart from storage", "error", err)
		notify.Error(ctx, s.notifier, MsgSaveFailed)
	}
}

func (s *Store) persist(ctx context.Context) {
	data, err := encodeItems(s.items)
	if err == nil {
		err = s.storage.Save(ctx, StorageKey, data)
	}
	if err != nil {
		s.logger.Error("save cart to storage", "error", err)
		notify.Error(ctx, s.notifier, MsgSaveFailed)
	}
}
