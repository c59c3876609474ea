package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/logging"
	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/notify"
	"github.com/safar/agrocart/internal/storage"
	"github.com/shopspring/decimal"
)

type failingStorage struct {
	storage.Storage
	failSave   bool
	failLoad   bool
	failRemove bool
	saves      int
}

func (f *failingStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if f.failLoad {
		return nil, errors.New("disk unavailable")
	}
	return f.Storage.Load(ctx, key)
}

func (f *failingStorage) Save(ctx context.Context, key string, data []byte) error {
	f.saves++
	if f.failSave {
		return errors.New("quota exceeded")
	}
	return f.Storage.Save(ctx, key, data)
}

func (f *failingStorage) Remove(ctx context.Context, key string) error {
	if f.failRemove {
		return errors.New("read-only")
	}
	return f.Storage.Remove(ctx, key)
}

type stubInventory struct {
	stock map[string]int
	err   error
}

func (s stubInventory) Stock(_ context.Context, id string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	qty, ok := s.stock[id]
	if !ok {
		return 0, catalog.ErrProductNotFound
	}
	return qty, nil
}

type fixture struct {
	svc      *Service
	store    *Store
	storage  storage.Storage
	recorder *notify.Recorder
}

func newFixture(t *testing.T, st storage.Storage, inv Inventory) fixture {
	t.Helper()
	if st == nil {
		st = storage.NewMemory()
	}
	rec := &notify.Recorder{}
	logger := logging.Discard()
	store := Load(context.Background(), st, rec, logger)
	svc := NewService(store, NewStockChecker(inv, logger), rec, logger)
	return fixture{svc: svc, store: store, storage: st, recorder: rec}
}

func product(id, name string, price string, stock int) models.Product {
	return models.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Category:      "vegetables",
		Seller:        models.Seller{ID: "s1", Name: "Green Acres"},
	}
}

func lastNotification(t *testing.T, r *notify.Recorder) notify.Notification {
	t.Helper()
	n, ok := r.Last()
	if !ok {
		t.Fatal("Expected a notification")
	}
	return n
}

func TestAddToCartNewItem(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	res := f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 3)
	if !res.OK {
		t.Fatalf("Expected success, got %+v", res)
	}

	items := f.store.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("Expected one item with quantity 3, got %+v", items)
	}
	if !f.store.Subtotal().Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected subtotal 150, got %s", f.store.Subtotal())
	}

	n := lastNotification(t, f.recorder)
	if n.Level != notify.LevelSuccess || n.Message != "Added to cart: Tomatoes" {
		t.Errorf("Unexpected notification %+v", n)
	}
}

func TestAddToCartIncreasesCountAndSubtotalExactly(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.svc.AddToCart(ctx, product("p2", "Onions", "12.35", 20), 2)

	beforeCount := f.store.TotalItems()
	beforeSubtotal := f.store.Subtotal()

	p := product("p1", "Tomatoes", "19.99", 8)
	for q := 1; q <= 3; q++ {
		f.svc.AddToCart(ctx, p, q)

		wantCount := beforeCount + q
		wantSubtotal := beforeSubtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(q))))
		if f.store.TotalItems() != wantCount {
			t.Fatalf("Expected %d items, got %d", wantCount, f.store.TotalItems())
		}
		if !f.store.Subtotal().Equal(wantSubtotal) {
			t.Fatalf("Expected subtotal %s, got %s", wantSubtotal, f.store.Subtotal())
		}
		beforeCount, beforeSubtotal = wantCount, wantSubtotal
	}
}

func TestAddToCartAccumulatesOnOneEntry(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	p := product("p1", "Tomatoes", "50", 10)

	f.svc.AddToCart(ctx, p, 2)
	res := f.svc.AddToCart(ctx, p, 3)
	if !res.OK {
		t.Fatalf("Expected success, got %+v", res)
	}

	items := f.store.Items()
	if len(items) != 1 {
		t.Fatalf("Expected a single entry, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("Expected quantity 5, got %d", items[0].Quantity)
	}
	if res.Message != "Updated quantity in cart: Tomatoes" {
		t.Errorf("Unexpected message %q", res.Message)
	}
}

func TestAddToCartRejectsInsufficientStockBeforeMaximum(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	p := product("p1", "Tomatoes", "50", 5)

	f.svc.AddToCart(ctx, p, 3)
	res := f.svc.AddToCart(ctx, p, 3)

	if res.OK || res.Code != CodeInsufficientStock {
		t.Fatalf("Expected insufficient stock, got %+v", res)
	}
	if f.store.QuantityOf("p1") != 3 {
		t.Errorf("Quantity should remain 3, got %d", f.store.QuantityOf("p1"))
	}
	n := lastNotification(t, f.recorder)
	if n.Level != notify.LevelError || n.Message != MsgInsufficientStock {
		t.Errorf("Unexpected notification %+v", n)
	}
}

func TestAddToCartRejectsAboveMaximum(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	p := product("p1", "Tomatoes", "50", 100)

	f.svc.AddToCart(ctx, p, 8)
	res := f.svc.AddToCart(ctx, p, 3)

	if res.OK || res.Code != CodeMaxQuantity {
		t.Fatalf("Expected max quantity rejection, got %+v", res)
	}
	if res.Message != "Maximum quantity per item is 10" {
		t.Errorf("Unexpected message %q", res.Message)
	}
}

func TestAddToCartValidation(t *testing.T) {
	tests := []struct {
		name     string
		product  models.Product
		quantity int
		want     Code
	}{
		{"missing id", product("", "Tomatoes", "50", 5), 1, CodeInvalidProduct},
		{"missing name", product("p1", "", "50", 5), 1, CodeInvalidProduct},
		{"negative price", product("p1", "Tomatoes", "-1", 5), 1, CodeInvalidProduct},
		{"zero quantity", product("p1", "Tomatoes", "50", 5), 0, CodeInvalidQuantity},
		{"negative quantity", product("p1", "Tomatoes", "50", 5), -2, CodeInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			res := f.svc.AddToCart(context.Background(), tt.product, tt.quantity)
			if res.OK || res.Code != tt.want {
				t.Errorf("Expected %s, got %+v", tt.want, res)
			}
			if f.store.TotalItems() != 0 {
				t.Error("Cart should stay empty")
			}
		})
	}
}

func TestStockCheckerPrefersInventory(t *testing.T) {
	inv := stubInventory{stock: map[string]int{"p1": 2}}
	f := newFixture(t, nil, inv)

	res := f.svc.AddToCart(context.Background(), product("p1", "Tomatoes", "50", 50), 3)
	if res.Code != CodeInsufficientStock {
		t.Errorf("Inventory stock of 2 should reject 3, got %+v", res)
	}

	res = f.svc.AddToCart(context.Background(), product("p9", "Garlic", "5", 4), 3)
	if !res.OK {
		t.Errorf("Unknown product should fall back to its own stock, got %+v", res)
	}
}

func TestStockCheckerLookupFailure(t *testing.T) {
	checker := NewStockChecker(stubInventory{err: errors.New("connection refused")}, logging.Discard())

	if checker.HasSufficientStock(context.Background(), product("p1", "Tomatoes", "50", 50), 1, 0) {
		t.Error("Lookup failure should report insufficient stock")
	}
}

func TestRemoveAbsentItemSkipsSave(t *testing.T) {
	st := &failingStorage{Storage: storage.NewMemory()}
	f := newFixture(t, st, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 1)
	saves := st.saves

	if res := f.svc.RemoveFromCart(ctx, "p9"); !res.OK {
		t.Fatalf("Expected OK, got %+v", res)
	}
	if res := f.svc.UpdateQuantity(ctx, "p1", 0); !res.OK {
		t.Fatalf("Expected OK, got %+v", res)
	}
	if st.saves != saves+1 {
		t.Errorf("Expected one save for the real removal, got %d", st.saves-saves)
	}
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 2)

	res := f.svc.RemoveFromCart(ctx, "p1")
	if !res.OK || f.store.TotalItems() != 0 {
		t.Fatalf("Expected item removed, got %+v", res)
	}
	n := lastNotification(t, f.recorder)
	if n.Level != notify.LevelInfo || n.Message != "Removed from cart: Tomatoes" {
		t.Errorf("Unexpected notification %+v", n)
	}

	count := len(f.recorder.Notifications())
	if res := f.svc.RemoveFromCart(ctx, "p1"); !res.OK {
		t.Errorf("Removing an absent item should be a no-op, got %+v", res)
	}
	if len(f.recorder.Notifications()) != count {
		t.Error("Removing an absent item should be silent")
	}

	if res := f.svc.RemoveFromCart(ctx, ""); res.OK {
		t.Error("Empty id should be refused")
	}
	if len(f.recorder.Notifications()) != count {
		t.Error("Empty id should only be logged")
	}
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 2)
	f.svc.AddToCart(ctx, product("p2", "Onions", "10", 5), 1)

	res := f.svc.UpdateQuantity(ctx, "p1", 0)
	if !res.OK {
		t.Fatalf("Expected success, got %+v", res)
	}
	if f.store.QuantityOf("p1") != 0 {
		t.Error("p1 should be gone")
	}
	if f.store.TotalItems() != 1 {
		t.Errorf("Expected 1 item left, got %d", f.store.TotalItems())
	}
	if res.Message != "Removed from cart: Tomatoes" {
		t.Errorf("Unexpected message %q", res.Message)
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		quantity int
		want     Code
		wantQty  int
	}{
		{"replace", "p1", 4, CodeOK, 4},
		{"decrease", "p1", 1, CodeOK, 1},
		{"above stock", "p1", 6, CodeInsufficientStock, 3},
		{"above maximum", "p1", 11, CodeMaxQuantity, 3},
		{"negative", "p1", -1, CodeInvalidQuantity, 3},
		{"not in cart", "p2", 1, CodeNotInCart, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 3)

			res := f.svc.UpdateQuantity(ctx, tt.id, tt.quantity)
			if res.Code != tt.want {
				t.Errorf("Expected %s, got %+v", tt.want, res)
			}
			if got := f.store.QuantityOf("p1"); got != tt.wantQty {
				t.Errorf("Expected quantity %d, got %d", tt.wantQty, got)
			}
		})
	}
}

func TestClearCart(t *testing.T) {
	st := storage.NewMemory()
	f := newFixture(t, st, nil)
	ctx := context.Background()
	f.svc.AddToCart(ctx, product("p1", "Tomatoes", "50", 5), 2)
	session := f.store.Session()

	res := f.svc.ClearCart(ctx)
	if !res.OK || res.Message != MsgCartCleared {
		t.Fatalf("Unexpected result %+v", res)
	}
	if f.store.TotalItems() != 0 || !f.store.Subtotal().IsZero() {
		t.Error("Cart should be empty")
	}
	if f.store.Session() == session {
		t.Error("Clearing should start a new session")
	}
	if _, err := st.Load(ctx, StorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Persisted cart should be removed, got %v", err)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	st := &failingStorage{Storage: storage.NewMemory(), failSave: true}
	f := newFixture(t, st, nil)

	res := f.svc.AddToCart(context.Background(), product("p1", "Tomatoes", "50", 5), 1)
	if !res.OK {
		t.Fatalf("Add should succeed in memory, got %+v", res)
	}
	if f.store.QuantityOf("p1") != 1 {
		t.Error("In-memory state should be authoritative")
	}

	var sawSaveError bool
	for _, n := range f.recorder.Notifications() {
		if n.Level == notify.LevelError && n.Message == MsgSaveFailed {
			sawSaveError = true
		}
	}
	if !sawSaveError {
		t.Error("Expected a save failure notification")
	}
}

type panickingInventory struct{}

func (panickingInventory) Stock(context.Context, string) (int, error) {
	panic("inventory exploded")
}

func TestOperationsRecoverFromPanics(t *testing.T) {
	f := newFixture(t, nil, panickingInventory{})

	res := f.svc.AddToCart(context.Background(), product("p1", "Tomatoes", "50", 5), 1)
	if res.OK || res.Code != CodeInternal || res.Message != MsgAddFailed {
		t.Fatalf("Expected internal failure, got %+v", res)
	}

	res = f.svc.AddToCart(context.Background(), product("p1", "Tomatoes", "50", 5), 0)
	if res.Code != CodeInvalidQuantity {
		t.Errorf("Store should stay usable after a recovered panic, got %+v", res)
	}
}
