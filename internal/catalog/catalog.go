// Package catalog is the product inventory: the demonstration product API and
// the authoritative stock source for the cart.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/safar/agrocart/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVersionConflict   = errors.New("product was modified concurrently")
)

type ListOptions struct {
	Category      string
	Search        string
	PublishedOnly bool
}

// ProductPatch carries a partial update; nil fields are left unchanged. A
// non-nil Version must match the stored version.
type ProductPatch struct {
	Version       *int             `json:"version"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Category      *string          `json:"category"`
	StockQuantity *int             `json:"stockQuantity"`
	Image         *string          `json:"image"`
	Seller        *models.Seller   `json:"seller"`
	Discount      *int             `json:"discount"`
	IsPublic      *bool            `json:"isPublic"`
	Status        *string          `json:"status"`
}

type StockLine struct {
	ProductID string
	Quantity  int
}

type Catalog interface {
	List(ctx context.Context, opts ListOptions) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Stock(ctx context.Context, id string) (int, error)
	DecrementStock(ctx context.Context, lines []StockLine) error
}

// Apply merges the patch into p.
func (patch ProductPatch) Apply(p *models.Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Seller != nil {
		p.Seller = *patch.Seller
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
	if patch.IsPublic != nil {
		p.IsPublic = *patch.IsPublic
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
}

// Matches reports whether p passes the list filters. Deleted products never match.
func (o ListOptions) Matches(p models.Product) bool {
	if p.Status == models.ProductStatusDeleted {
		return false
	}
	if o.PublishedOnly && !(p.IsPublic && p.Status == models.ProductStatusPublished) {
		return false
	}
	if o.Category != "" && p.Category != o.Category {
		return false
	}
	if o.Search != "" {
		q := strings.ToLower(o.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}
