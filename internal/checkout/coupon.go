package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/metrics"
	"github.com/safar/agrocart/internal/notify"
	"github.com/shopspring/decimal"
)

const (
	CouponCode        = "silveroakunistudent"
	MaxCouponAttempts = 3
)

const (
	MsgCouponAlreadyApplied = "Coupon already applied"
	MsgCouponTooManyTries   = "Too many attempts. Please try again later."
	MsgCouponApplied        = "10% discount applied successfully!"
	MsgCouponInvalid        = "Invalid coupon code"
)

type CouponResult struct {
	OK       bool            `json:"ok"`
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
}

// Coupon tracks the discount of one cart session. The state resets when the
// cart moves on to a new session.
type Coupon struct {
	mu       sync.Mutex
	notifier notify.Notifier

	session  uint64
	applied  bool
	attempts int
	discount decimal.Decimal
}

func NewCoupon(notifier notify.Notifier) *Coupon {
	return &Coupon{notifier: notifier}
}

func (c *Coupon) resetFor(session uint64) {
	if c.session == session {
		return
	}
	c.session = session
	c.applied = false
	c.attempts = 0
	c.discount = decimal.Zero
}

// Apply redeems code against the snapshot's subtotal. The discount is fixed
// at the moment it is granted.
func (c *Coupon) Apply(ctx context.Context, code string, snap cart.Snapshot) CouponResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetFor(snap.Session)

	var res CouponResult
	switch {
	case c.applied:
		res = CouponResult{Message: MsgCouponAlreadyApplied}
	case c.attempts >= MaxCouponAttempts:
		res = CouponResult{Message: MsgCouponTooManyTries}
	default:
		c.attempts++
		if strings.EqualFold(strings.TrimSpace(code), CouponCode) {
			discount := decimal.Zero
			if snap.Subtotal.IsPositive() {
				discount = snap.Subtotal.Mul(DiscountRate).Round(2)
			}
			c.applied = true
			c.discount = discount
			res = CouponResult{OK: true, Message: MsgCouponApplied}
		} else {
			res = CouponResult{Message: MsgCouponInvalid}
		}
	}
	res.Discount = c.discount

	if res.OK {
		metrics.Checkout("coupon", "applied")
		notify.Success(ctx, c.notifier, res.Message)
	} else {
		metrics.Checkout("coupon", "rejected")
		notify.Error(ctx, c.notifier, res.Message)
	}
	return res
}

// Discount returns the discount granted in session, if any.
func (c *Coupon) Discount(session uint64) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetFor(session)
	return c.discount, c.applied
}
