package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safar/agrocart/internal/metrics"
	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/notify"
)

// Service exposes the cart operations. Every operation returns a Result and
// reports it to the notifier; none of them panics or returns an error.
type Service struct {
	store    *Store
	stock    *StockChecker
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewService(store *Store, stock *StockChecker, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, stock: stock, notifier: notifier, logger: logger}
}

func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) AddToCart(ctx context.Context, product models.Product, quantity int) (res Result) {
	defer s.guard(ctx, "add", MsgAddFailed, &res)

	if product.ID == "" || product.Name == "" || product.Price.IsNegative() {
		return s.report(ctx, "add", failed(CodeInvalidProduct, MsgInvalidProduct))
	}
	if quantity <= 0 {
		return s.report(ctx, "add", failed(CodeInvalidQuantity, MsgInvalidQuantity))
	}

	res = s.store.mutate(ctx, func(items Items) (Items, Result) {
		held := items.QuantityOf(product.ID)
		if !s.stock.HasSufficientStock(ctx, product, quantity, held) {
			return items, failed(CodeInsufficientStock, MsgInsufficientStock)
		}

		newQuantity := held + quantity
		if newQuantity > models.MaxQuantityPerItem {
			return items, maxQuantityExceeded(models.MaxQuantityPerItem)
		}

		if i := items.index(product.ID); i >= 0 {
			items[i].Quantity = newQuantity
			return items, succeeded(msgUpdatedInCartFormat, product.Name)
		}
		return append(items, models.CartItem{Product: product, Quantity: quantity}),
			succeeded(msgAddedFormat, product.Name)
	})

	return s.report(ctx, "add", res)
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (res Result) {
	defer s.guard(ctx, "remove", MsgRemoveFailed, &res)

	if productID == "" {
		s.logger.Error("invalid product id for removal")
		metrics.CartOperation("remove", string(CodeInvalidProduct))
		return failed(CodeInvalidProduct, MsgInvalidProductID)
	}

	res = s.store.mutate(ctx, func(items Items) (Items, Result) {
		return removeItem(items, productID)
	})
	return s.report(ctx, "remove", res)
}

// UpdateQuantity replaces the quantity of an item already in the cart. Zero
// removes the item.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) (res Result) {
	defer s.guard(ctx, "update", MsgUpdateFailed, &res)

	if productID == "" || quantity < 0 {
		return s.report(ctx, "update", failed(CodeInvalidQuantity, MsgInvalidQuantityOrID))
	}

	res = s.store.mutate(ctx, func(items Items) (Items, Result) {
		i := items.index(productID)
		if i < 0 {
			return items, failed(CodeNotInCart, MsgNotInCart)
		}
		if quantity > models.MaxQuantityPerItem {
			return items, maxQuantityExceeded(models.MaxQuantityPerItem)
		}

		item := items[i]
		if quantity > item.Quantity &&
			!s.stock.HasSufficientStock(ctx, item.Product, quantity-item.Quantity, item.Quantity) {
			return items, failed(CodeInsufficientStock, MsgInsufficientStock)
		}

		if quantity == 0 {
			return removeItem(items, productID)
		}

		items[i].Quantity = quantity
		return items, succeeded(msgUpdatedQuantityFormat, item.Name)
	})

	return s.report(ctx, "update", res)
}

func (s *Service) ClearCart(ctx context.Context) (res Result) {
	defer s.guard(ctx, "clear", MsgClearFailed, &res)

	s.store.clear(ctx)
	return s.report(ctx, "clear", informed(MsgCartCleared))
}

func removeItem(items Items, productID string) (Items, Result) {
	i := items.index(productID)
	if i < 0 {
		return items, Result{OK: true, Code: CodeOK, unchanged: true}
	}
	name := items[i].Name
	return append(items[:i], items[i+1:]...), informed(msgRemovedFromCartFormat, name)
}

// report records the outcome and notifies it. Results without a message
// (removing an absent item) stay silent.
func (s *Service) report(ctx context.Context, op string, res Result) Result {
	metrics.CartOperation(op, string(res.Code))

	if res.Message != "" {
		s.notifier.Notify(ctx, notify.Notification{Level: res.level, Message: res.Message})
	}
	return res
}

func (s *Service) guard(ctx context.Context, op, msg string, res *Result) {
	if r := recover(); r != nil {
		s.logger.Error("cart operation failed", "op", op, "panic", fmt.Sprint(r))
		*res = s.report(ctx, op, failed(CodeInternal, msg))
	}
}
