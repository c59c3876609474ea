// Package checkout derives order totals from the cart, applies the coupon and
// turns a confirmed payment into an order.
package checkout

import (
	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/models"
	"github.com/shopspring/decimal"
)

var (
	TaxRate      = decimal.RequireFromString("0.10")
	ShippingFee  = decimal.RequireFromString("5.99")
	DiscountRate = decimal.RequireFromString("0.10")
)

// Summarize computes tax, shipping and total for a subtotal and discount.
// Money is rounded to cents and the total never drops below zero.
func Summarize(subtotal, discount decimal.Decimal) models.CheckoutTotals {
	tax := decimal.Zero
	if subtotal.IsPositive() {
		tax = subtotal.Mul(TaxRate).Round(2)
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = ShippingFee
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return models.CheckoutTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}

// Summary is the checkout view of the current cart.
type Summary struct {
	Items         cart.Items `json:"items"`
	ItemCount     int        `json:"itemCount"`
	CouponApplied bool       `json:"couponApplied"`
	models.CheckoutTotals
}

// Summarize builds the checkout summary for a cart snapshot using the coupon
// state of the snapshot's session.
func (c *Coupon) Summarize(snap cart.Snapshot) Summary {
	discount, applied := c.Discount(snap.Session)

	items := snap.Items
	if items == nil {
		items = cart.Items{}
	}
	return Summary{
		Items:          items,
		ItemCount:      items.TotalQuantity(),
		CouponApplied:  applied,
		CheckoutTotals: Summarize(snap.Subtotal, discount),
	}
}
