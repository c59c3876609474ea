package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/notify"
	"github.com/shopspring/decimal"
)

type cartView struct {
	Items     cart.Items      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Result        cart.Result           `json:"result"`
	Cart          cartView              `json:"cart"`
	Notifications []notify.Notification `json:"notifications"`
}

func (s *Server) view() cartView {
	snap := s.cart.Store().Snapshot()
	items := snap.Items
	if items == nil {
		items = cart.Items{}
	}
	return cartView{Items: items, ItemCount: items.TotalQuantity(), Subtotal: snap.Subtotal}
}

func (s *Server) respondCart(w http.ResponseWriter, r *http.Request, res cart.Result) {
	respondJSON(w, statusForCode(res.Code), cartResponse{
		Result:        res,
		Cart:          s.view(),
		Notifications: notifications(r),
	})
}

func statusForCode(code cart.Code) int {
	switch code {
	case cart.CodeOK:
		return http.StatusOK
	case cart.CodeInvalidProduct, cart.CodeInvalidQuantity:
		return http.StatusBadRequest
	case cart.CodeNotInCart:
		return http.StatusNotFound
	case cart.CodeInsufficientStock, cart.CodeMaxQuantity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.respondCart(w, r, s.cart.ClearCart(r.Context()))
}

type addItemRequest struct {
	ProductID string          `json:"productId"`
	Product   *models.Product `json:"product"`
	Quantity  int             `json:"quantity"`
}

// handleAddItem adds a catalog product by id. Products the catalog does not
// know can be sent inline.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.resolveProduct(r.Context(), req)
	if errors.Is(err, errProductUnavailable) {
		respondError(w, http.StatusConflict, "Product is not available")
		return
	}
	if err != nil {
		s.logger.Error("resolve product", "product_id", req.ProductID, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.respondCart(w, r, s.cart.AddToCart(r.Context(), product, req.Quantity))
}

// errProductUnavailable marks a catalog product that is not published.
var errProductUnavailable = errors.New("product not available")

func (s *Server) resolveProduct(ctx context.Context, req addItemRequest) (models.Product, error) {
	id := req.ProductID
	if id == "" && req.Product != nil {
		id = req.Product.ID
	}

	if id != "" {
		p, err := s.catalog.Get(ctx, id)
		switch {
		case err == nil:
			if !(catalog.ListOptions{PublishedOnly: true}).Matches(*p) {
				return models.Product{}, errProductUnavailable
			}
			return *p, nil
		case !errors.Is(err, catalog.ErrProductNotFound):
			return models.Product{}, err
		}
	}

	if req.Product != nil {
		return *req.Product, nil
	}
	// Left to AddToCart to reject.
	return models.Product{ID: id}, nil
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.respondCart(w, r, s.cart.UpdateQuantity(r.Context(), r.PathValue("id"), *req.Quantity))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s.respondCart(w, r, s.cart.RemoveFromCart(r.Context(), r.PathValue("id")))
}
