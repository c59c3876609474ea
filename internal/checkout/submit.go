package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/metrics"
	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/notify"
	"github.com/safar/agrocart/internal/payment"
)

var (
	ErrBuyerRequired       = errors.New("buyer is required")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidTotal        = errors.New("invalid order total")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrNoPendingCheckout   = errors.New("no pending checkout")
	ErrInvalidConfirmation = errors.New("invalid payment confirmation")
	ErrPaymentMismatch     = errors.New("payment does not match pending checkout")
	ErrInvalidSignature    = errors.New("invalid payment signature")
	ErrOrderNotRecorded    = errors.New("order not recorded")
)

const (
	DefaultCurrency = "INR"

	MsgOrderPlaced        = "Order placed successfully"
	MsgOrderNotRecorded   = "Payment was successful, but there was an error processing your order."
	DefaultCancelReason   = "Payment failed or canceled"
	msgPaymentStartFailed = "Failed to start payment. Please try again."
)

type PaymentGateway interface {
	CreatePayment(ctx context.Context, amount int64, currency string) (models.PaymentIntent, error)
}

type OrderPublisher interface {
	PublishOrder(ctx context.Context, order models.Order) error
}

type StockDecrementer interface {
	Stock(ctx context.Context, id string) (int, error)
	DecrementStock(ctx context.Context, lines []catalog.StockLine) error
}

// Deps wires a Submitter. Publisher and Stock are optional.
type Deps struct {
	Cart      *cart.Service
	Coupon    *Coupon
	Gateway   PaymentGateway
	History   OrderHistory
	Publisher OrderPublisher
	Stock     StockDecrementer
	Notifier  notify.Notifier
	Logger    *slog.Logger

	Currency  string
	KeySecret string
}

// Pending is a checkout waiting for the buyer to complete payment.
type Pending struct {
	Intent models.PaymentIntent  `json:"payment"`
	Totals models.CheckoutTotals `json:"totals"`
	Buyer  models.Buyer          `json:"buyer"`

	items cart.Items
}

type Confirmation struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

type Failure struct {
	Reason string `json:"reason"`
}

// Submitter runs the payment boundary: it starts a payment for the cart total
// and, once the gateway confirms it, records the order and clears the cart.
type Submitter struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	starting bool
	pending  *Pending
}

func NewSubmitter(deps Deps) *Submitter {
	if deps.Currency == "" {
		deps.Currency = DefaultCurrency
	}
	return &Submitter{deps: deps, now: time.Now}
}

// Begin creates a payment for the current cart total. Only one Begin may run
// at a time; a successful Begin replaces any earlier pending checkout.
func (s *Submitter) Begin(ctx context.Context, buyer models.Buyer) (*Pending, error) {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		metrics.Checkout("begin", "in_progress")
		return nil, ErrCheckoutInProgress
	}
	s.starting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}()

	if buyer.ID == "" {
		metrics.Checkout("begin", "no_buyer")
		return nil, ErrBuyerRequired
	}

	snap := s.deps.Cart.Store().Snapshot()
	if len(snap.Items) == 0 {
		metrics.Checkout("begin", "empty_cart")
		return nil, ErrEmptyCart
	}

	summary := s.deps.Coupon.Summarize(snap)
	amount := summary.MinorUnits()
	if amount <= 0 {
		metrics.Checkout("begin", "invalid_total")
		return nil, ErrInvalidTotal
	}

	intent, err := s.deps.Gateway.CreatePayment(ctx, amount, s.deps.Currency)
	if err != nil {
		metrics.Checkout("begin", "gateway_error")
		s.deps.Logger.Error("create payment", "amount", amount, "error", err)
		notify.Error(ctx, s.deps.Notifier, msgPaymentStartFailed)
		return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}

	p := &Pending{
		Intent: intent,
		Totals: summary.CheckoutTotals,
		Buyer:  buyer,
		items:  snap.Items,
	}

	s.mu.Lock()
	s.pending = p
	s.mu.Unlock()

	metrics.Checkout("begin", "started")
	s.deps.Logger.Info("checkout started", "payment_order_id", intent.ID, "amount", amount, "buyer_id", buyer.ID)
	out := *p
	return &out, nil
}

// Confirm turns a successful payment into an order. The order snapshot is the
// cart as it was when the payment was created.
func (s *Submitter) Confirm(ctx context.Context, c Confirmation) (*models.Order, error) {
	if c.PaymentID == "" || c.OrderID == "" || c.Signature == "" {
		metrics.Checkout("confirm", "invalid")
		return nil, ErrInvalidConfirmation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending
	if p == nil {
		metrics.Checkout("confirm", "no_pending")
		return nil, ErrNoPendingCheckout
	}
	if c.OrderID != p.Intent.ID {
		metrics.Checkout("confirm", "mismatch")
		return nil, ErrPaymentMismatch
	}
	if s.deps.KeySecret != "" && !payment.VerifySignature(s.deps.KeySecret, c.OrderID, c.PaymentID, c.Signature) {
		metrics.Checkout("confirm", "bad_signature")
		s.deps.Logger.Warn("payment signature mismatch", "payment_order_id", c.OrderID, "payment_id", c.PaymentID)
		return nil, ErrInvalidSignature
	}

	order := models.Order{
		ID:               uuid.NewString(),
		PaymentID:        c.PaymentID,
		PaymentOrderID:   c.OrderID,
		PaymentSignature: c.Signature,
		Items:            p.items,
		Totals:           p.Totals,
		Buyer:            p.Buyer,
		Status:           models.OrderStatusCompleted,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.deps.History.Append(ctx, order); err != nil {
		metrics.Checkout("confirm", "not_recorded")
		s.deps.Logger.Error("record order", "order_id", order.ID, "payment_id", c.PaymentID, "error", err)
		notify.Error(ctx, s.deps.Notifier, MsgOrderNotRecorded)
		return nil, fmt.Errorf("%w: %w", ErrOrderNotRecorded, err)
	}
	s.pending = nil

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishOrder(ctx, order); err != nil {
			s.deps.Logger.Error("publish order", "order_id", order.ID, "error", err)
		}
	}

	if s.deps.Stock != nil {
		s.decrementStock(ctx, order)
	}

	s.deps.Cart.ClearCart(ctx)

	metrics.Checkout("confirm", "completed")
	s.deps.Logger.Info("order placed", "order_id", order.ID, "payment_id", order.PaymentID, "total", order.Totals.Total.String())
	notify.Success(ctx, s.deps.Notifier, MsgOrderPlaced)
	return &order, nil
}

// decrementStock reduces catalog stock for the order. Lines for products the
// catalog does not know were added inline and are skipped.
func (s *Submitter) decrementStock(ctx context.Context, order models.Order) {
	lines := make([]catalog.StockLine, 0, len(order.Items))
	for _, item := range order.Items {
		if _, err := s.deps.Stock.Stock(ctx, item.ID); err != nil {
			if !errors.Is(err, catalog.ErrProductNotFound) {
				s.deps.Logger.Error("look up stock", "order_id", order.ID, "product_id", item.ID, "error", err)
				return
			}
			s.deps.Logger.Info("skip stock decrement for uncatalogued product", "order_id", order.ID, "product_id", item.ID)
			continue
		}
		lines = append(lines, catalog.StockLine{ProductID: item.ID, Quantity: item.Quantity})
	}
	if len(lines) == 0 {
		return
	}
	if err := s.deps.Stock.DecrementStock(ctx, lines); err != nil {
		s.deps.Logger.Error("decrement stock", "order_id", order.ID, "error", err)
	}
}

// Cancel drops the pending checkout. The cart is left untouched.
func (s *Submitter) Cancel(ctx context.Context, reason string) Failure {
	if reason == "" {
		reason = DefaultCancelReason
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	metrics.Checkout("cancel", "canceled")
	s.deps.Logger.Info("checkout canceled", "reason", reason)
	notify.Error(ctx, s.deps.Notifier, reason)
	return Failure{Reason: reason}
}

// Pending returns the checkout waiting for payment, if any.
func (s *Submitter) Pending() (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, false
	}
	out := *s.pending
	return &out, true
}
