package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/storage"
)

// OrdersKey is the key the order history is persisted under.
const OrdersKey = "orders"

var ErrInvalidCursor = errors.New("invalid cursor")

// OrderHistory is the append-only record of placed orders.
type OrderHistory interface {
	Append(ctx context.Context, order models.Order) error
	List(ctx context.Context, q models.OrderQuery) (models.OrderPage, error)
}

// StorageHistory keeps the history as one JSON array in a Storage backend.
type StorageHistory struct {
	mu      sync.Mutex
	storage storage.Storage
}

func NewStorageHistory(st storage.Storage) *StorageHistory {
	return &StorageHistory{storage: st}
}

func (h *StorageHistory) Append(ctx context.Context, order models.Order) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	orders, err := h.load(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, order)

	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	if err := h.storage.Save(ctx, OrdersKey, data); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

func (h *StorageHistory) List(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	cursor, hasCursor, err := models.DecodeCursor(q.Cursor)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	h.mu.Lock()
	orders, err := h.load(ctx)
	h.mu.Unlock()
	if err != nil {
		return models.OrderPage{}, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	limit := q.PageSize()
	page := models.OrderPage{Items: []models.Order{}}
	for _, o := range orders {
		if q.BuyerID != "" && o.Buyer.ID != q.BuyerID {
			continue
		}
		if hasCursor && !cursor.Before(o) {
			continue
		}
		if len(page.Items) == limit {
			page.HasMore = true
			break
		}
		page.Items = append(page.Items, o)
	}

	if page.HasMore {
		last := page.Items[len(page.Items)-1]
		page.NextCursor = models.EncodeCursor(models.OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (h *StorageHistory) load(ctx context.Context) ([]models.Order, error) {
	data, err := h.storage.Load(ctx, OrdersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
