package cart

import (
	"context"
	"testing"

	"github.com/safar/agrocart/internal/logging"
	"github.com/safar/agrocart/internal/notify"
	"github.com/safar/agrocart/internal/storage"
	"github.com/shopspring/decimal"
)

func TestLoadRestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()

	first := newFixture(t, st, nil)
	first.svc.AddToCart(ctx, product("p1", "Tomatoes", "19.99", 5), 2)
	first.svc.AddToCart(ctx, product("p2", "Onions", "10", 5), 1)

	restored := Load(ctx, st, &notify.Recorder{}, logging.Discard())

	items := restored.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ID != "p1" || items[0].Quantity != 2 || items[0].Seller.Name != "Green Acres" {
		t.Errorf("Unexpected first item %+v", items[0])
	}
	if !restored.Subtotal().Equal(decimal.RequireFromString("49.98")) {
		t.Errorf("Expected subtotal 49.98, got %s", restored.Subtotal())
	}
}

func TestLoadFiltersMalformedEntries(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	doc := `[
		{"id":"p1","name":"Tomatoes","price":50,"quantity":2},
		{"name":"No id","price":10,"quantity":1},
		{"id":"p3","price":10,"quantity":1},
		{"id":"p4","name":"No price","quantity":1},
		{"id":"p5","name":"Zero","price":10,"quantity":0},
		{"id":"p6","name":"Text qty","price":10,"quantity":"2"},
		{"id":"p7","name":"Fraction","price":10,"quantity":1.5},
		{"id":"p8","name":"Too many","price":10,"quantity":11},
		{"id":"p1","name":"Duplicate","price":50,"quantity":1},
		"garbage",
		{"id":"p9","name":"Carrots","price":2.5,"quantity":4}
	]`
	if err := st.Save(ctx, StorageKey, []byte(doc)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := Load(ctx, st, &notify.Recorder{}, logging.Discard())

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 valid items, got %d: %+v", len(items), items)
	}
	if items[0].ID != "p1" || items[1].ID != "p9" {
		t.Errorf("Unexpected items %+v", items)
	}
	if !s.Subtotal().Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected subtotal 110, got %s", s.Subtotal())
	}
}

func TestLoadNonArrayYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	for _, doc := range []string{`{"id":"p1"}`, `not json`, `null`} {
		st := storage.NewMemory()
		if err := st.Save(ctx, StorageKey, []byte(doc)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		s := Load(ctx, st, &notify.Recorder{}, logging.Discard())
		if s.TotalItems() != 0 {
			t.Errorf("Document %q should yield an empty cart", doc)
		}
	}
}

func TestLoadStorageFailureYieldsEmptyCart(t *testing.T) {
	st := &failingStorage{Storage: storage.NewMemory(), failLoad: true}

	s := Load(context.Background(), st, &notify.Recorder{}, logging.Discard())
	if s.TotalItems() != 0 || !s.Subtotal().IsZero() {
		t.Error("Expected an empty cart")
	}
	if s.Session() != 1 {
		t.Errorf("Expected first session, got %d", s.Session())
	}
}

func TestClearRemoveFailureNotifies(t *testing.T) {
	st := &failingStorage{Storage: storage.NewMemory(), failRemove: true}
	f := newFixture(t, st, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 1)

	f.svc.ClearCart(ctx)

	if f.store.TotalItems() != 0 {
		t.Error("Cart should be empty in memory")
	}
	var sawSaveError bool
	for _, n := range f.recorder.Notifications() {
		if n.Message == MsgSaveFailed {
			sawSaveError = true
		}
	}
	if !sawSaveError {
		t.Error("Expected a save failure notification")
	}
}

func TestSubtotalSkipsNegativeLines(t *testing.T) {
	items := Items{
		{Product: product("p1", "Tomatoes", "10", 5), Quantity: 2},
		{Product: product("p2", "Broken", "-3", 5), Quantity: 1},
	}

	if got := items.subtotal(logging.Discard()); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected subtotal 20, got %s", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 1)

	snap := f.store.Snapshot()
	snap.Items[0].Quantity = 9

	if f.store.QuantityOf("p1") != 1 {
		t.Error("Mutating a snapshot should not touch the cart")
	}
	if snap.Session != f.store.Session() {
		t.Errorf("Expected session %d, got %d", f.store.Session(), snap.Session)
	}
}
