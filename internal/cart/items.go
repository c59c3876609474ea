package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/safar/agrocart/internal/models"
	"github.com/shopspring/decimal"
)

// Items is the ordered cart contents, unique by product id.
type Items []models.CartItem

func (it Items) index(productID string) int {
	for i := range it {
		if it[i].ID == productID {
			return i
		}
	}
	return -1
}

func (it Items) Find(productID string) (models.CartItem, bool) {
	if i := it.index(productID); i >= 0 {
		return it[i], true
	}
	return models.CartItem{}, false
}

func (it Items) QuantityOf(productID string) int {
	if item, ok := it.Find(productID); ok {
		return item.Quantity
	}
	return 0
}

func (it Items) TotalQuantity() int {
	total := 0
	for _, item := range it {
		total += item.Quantity
	}
	return total
}

func (it Items) clone() Items {
	if it == nil {
		return nil
	}
	out := make(Items, len(it))
	copy(out, it)
	return out
}

// subtotal sums price*quantity, skipping and logging negative line totals.
func (it Items) subtotal(logger *slog.Logger) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range it {
		line := item.LineTotal()
		if line.IsNegative() {
			logger.Error("invalid price calculation for cart item",
				"product_id", item.ID, "price", item.Price.String(), "quantity", item.Quantity)
			continue
		}
		sum = sum.Add(line)
	}
	return sum
}

// storedItem is the persisted shape. Identity, price and quantity are
// pointers so that missing or mistyped fields can be told apart from zero.
type storedItem struct {
	models.Product
	ID       *string  `json:"id"`
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *float64 `json:"quantity"`
}

func encodeItems(items Items) ([]byte, error) {
	stored := make([]storedItem, 0, len(items))
	for _, item := range items {
		id, name := item.ID, item.Name
		price := item.Price.InexactFloat64()
		qty := float64(item.Quantity)
		stored = append(stored, storedItem{
			Product:  item.Product,
			ID:       &id,
			Name:     &name,
			Price:    &price,
			Quantity: &qty,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return data, nil
}

// decodeItems parses a persisted cart and drops every entry that fails the
// structural check. A document that is not a JSON array yields an empty cart.
func decodeItems(data []byte, logger *slog.Logger) Items {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Error("invalid cart data format", "error", err)
		return nil
	}

	items := make(Items, 0, len(raw))
	for _, entry := range raw {
		item, err := decodeItem(entry)
		if err != nil {
			logger.Error("invalid cart item", "error", err, "item", string(entry))
			continue
		}
		if items.index(item.ID) >= 0 {
			logger.Error("duplicate cart item", "product_id", item.ID)
			continue
		}
		items = append(items, item)
	}
	return items
}

func decodeItem(entry json.RawMessage) (models.CartItem, error) {
	var s storedItem
	if err := json.Unmarshal(entry, &s); err != nil {
		return models.CartItem{}, err
	}

	switch {
	case s.ID == nil || *s.ID == "":
		return models.CartItem{}, errors.New("missing id")
	case s.Name == nil:
		return models.CartItem{}, errors.New("missing name")
	case s.Price == nil:
		return models.CartItem{}, errors.New("missing price")
	case s.Quantity == nil || *s.Quantity <= 0:
		return models.CartItem{}, errors.New("quantity must be positive")
	case *s.Quantity != math.Trunc(*s.Quantity) || *s.Quantity > models.MaxQuantityPerItem:
		return models.CartItem{}, fmt.Errorf("quantity %v out of range", *s.Quantity)
	}

	p := s.Product
	p.ID = *s.ID
	p.Name = *s.Name
	p.Price = decimal.NewFromFloat(*s.Price)

	return models.CartItem{Product: p, Quantity: int(*s.Quantity)}, nil
}
