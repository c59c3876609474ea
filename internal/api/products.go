package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/database"
	"github.com/safar/agrocart/internal/models"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	published, _ := strconv.ParseBool(q.Get("published"))

	products, err := s.catalog.List(r.Context(), catalog.ListOptions{
		Category:      q.Get("category"),
		Search:        q.Get("search"),
		PublishedOnly: published,
	})
	if err != nil {
		s.logger.Error("list products", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.catalog.Create(r.Context(), p)
	if err != nil {
		s.respondCatalogError(w, "create product", err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondCatalogError(w, "get product", err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch catalog.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := s.catalog.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.respondCatalogError(w, "update product", err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondCatalogError(w, "delete product", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (s *Server) respondCatalogError(w http.ResponseWriter, op string, err error) {
	var verrs catalog.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": verrs,
		})
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, catalog.ErrVersionConflict):
		respondError(w, http.StatusConflict, "Product was modified concurrently")
	case errors.Is(err, database.ErrLockTimeout):
		respondError(w, http.StatusServiceUnavailable, "Product is busy, please try again")
	default:
		s.logger.Error(op, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
