// Package api is the HTTP surface: the product API, the cart and checkout.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/checkout"
	"github.com/safar/agrocart/internal/metrics"
	"github.com/safar/agrocart/internal/notify"
)

type Deps struct {
	Catalog        catalog.Catalog
	Cart           *cart.Service
	Coupon         *checkout.Coupon
	Submitter      *checkout.Submitter
	History        checkout.OrderHistory
	Logger         *slog.Logger
	AllowedOrigins []string
}

type Server struct {
	catalog   catalog.Catalog
	cart      *cart.Service
	coupon    *checkout.Coupon
	submitter *checkout.Submitter
	history   checkout.OrderHistory
	logger    *slog.Logger
	origins   []string
}

func NewServer(d Deps) *Server {
	return &Server{
		catalog:   d.Catalog,
		cart:      d.Cart,
		coupon:    d.Coupon,
		submitter: d.Submitter,
		history:   d.History,
		logger:    d.Logger,
		origins:   d.AllowedOrigins,
	}
}

// Routes builds the handler with every route and the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("POST /api/products", s.handleCreateProduct)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("PUT /api/products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", s.handleDeleteProduct)

	mux.HandleFunc("GET /api/cart", s.handleGetCart)
	mux.HandleFunc("DELETE /api/cart", s.handleClearCart)
	mux.HandleFunc("POST /api/cart/items", s.handleAddItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", s.handleRemoveItem)
	mux.HandleFunc("GET /api/cart/summary", s.handleSummary)
	mux.HandleFunc("POST /api/cart/coupon", s.handleApplyCoupon)

	mux.HandleFunc("POST /api/checkout", s.handleBeginCheckout)
	mux.HandleFunc("POST /api/checkout/confirm", s.handleConfirmCheckout)
	mux.HandleFunc("POST /api/checkout/cancel", s.handleCancelCheckout)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)

	var h http.Handler = mux
	h = metrics.Middleware(h)
	h = withNotifications(h)
	h = withRecovery(s.logger, h)
	h = withLogging(s.logger, h)
	h = withCORS(s.origins, h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// notifications returns what the cart and checkout reported during the request.
func notifications(r *http.Request) []notify.Notification {
	if rec := notify.RecorderFrom(r.Context()); rec != nil {
		return rec.Notifications()
	}
	return []notify.Notification{}
}
