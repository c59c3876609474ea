package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantityPerItem caps the quantity of a single product in one cart.
const MaxQuantityPerItem = 10

type Seller struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	BusinessName string `json:"businessName,omitempty"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stockQuantity"`
	Image         string          `json:"image"`
	Seller        Seller          `json:"seller"`
	Discount      int             `json:"discount"`
	IsPublic      bool            `json:"isPublic"`
	Status        string          `json:"status"`
	Rating        float64         `json:"rating,omitempty"`
	Reviews       int             `json:"reviews,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int             `json:"version,omitempty"`
}

const (
	ProductStatusDraft       = "draft"
	ProductStatusPublished   = "published"
	ProductStatusUnpublished = "unpublished"
	ProductStatusDeleted     = "deleted"
)

type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CheckoutTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// MinorUnits converts the total to the smallest currency unit (paise, cents).
func (t CheckoutTotals) MinorUnits() int64 {
	return t.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type Buyer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID               string         `json:"id"`
	PaymentID        string         `json:"paymentId"`
	PaymentOrderID   string         `json:"paymentOrderId"`
	PaymentSignature string         `json:"paymentSignature,omitempty"`
	Items            []CartItem     `json:"items"`
	Totals           CheckoutTotals `json:"totals"`
	Buyer            Buyer          `json:"buyer"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}

const (
	OrderStatusCompleted = "completed"
)

// PaymentIntent is a payment order created at the gateway for a checkout.
type PaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
