package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/models"
)

// Inventory is the authoritative stock source.
type Inventory interface {
	Stock(ctx context.Context, productID string) (int, error)
}

type StockChecker struct {
	inventory Inventory
	logger    *slog.Logger
}

func NewStockChecker(inventory Inventory, logger *slog.Logger) *StockChecker {
	return &StockChecker{inventory: inventory, logger: logger}
}

// HasSufficientStock reports whether requested more units of product fit in
// the remaining stock once the held quantity already in the cart is taken
// out. Products unknown to the inventory fall back to their own
// StockQuantity. Lookup failures report false.
func (c *StockChecker) HasSufficientStock(ctx context.Context, product models.Product, requested, held int) bool {
	available := product.StockQuantity

	if c.inventory != nil {
		stock, err := c.inventory.Stock(ctx, product.ID)
		switch {
		case err == nil:
			available = stock
		case errors.Is(err, catalog.ErrProductNotFound):
		default:
			c.logger.Error("check stock", "product_id", product.ID, "error", err)
			return false
		}
	}

	return available-held >= requested
}
