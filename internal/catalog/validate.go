package catalog

import (
	"sort"
	"strings"

	"github.com/safar/agrocart/internal/models"
)

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return strings.Join(msgs, "; ")
}

var validStatuses = map[string]bool{
	models.ProductStatusDraft:       true,
	models.ProductStatusPublished:   true,
	models.ProductStatusUnpublished: true,
	models.ProductStatusDeleted:     true,
}

// Validate checks a product before it is stored. It returns nil or ValidationErrors.
func Validate(p models.Product) error {
	errs := ValidationErrors{}

	if p.ID == "" {
		errs["id"] = "Product ID is required"
	}
	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "Product name is required"
	}
	if strings.TrimSpace(p.Description) == "" {
		errs["description"] = "Product description is required"
	}
	if p.Price.IsNegative() || !p.Price.Equal(p.Price.Round(2)) {
		errs["price"] = "Invalid product price"
	}
	if p.StockQuantity < 0 {
		errs["stockQuantity"] = "Invalid stock quantity"
	}
	if strings.TrimSpace(p.Category) == "" {
		errs["category"] = "Product category is required"
	}
	if p.Seller.ID == "" || p.Seller.Name == "" {
		errs["seller"] = "Invalid seller information"
	}
	if p.Discount < 0 || p.Discount > 100 {
		errs["discount"] = "Discount must be between 0 and 100"
	}
	if !validStatuses[p.Status] {
		errs["status"] = "Invalid product status"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
