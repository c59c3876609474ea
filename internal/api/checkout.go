package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/safar/agrocart/internal/checkout"
	"github.com/safar/agrocart/internal/models"
	"github.com/safar/agrocart/internal/notify"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.coupon.Summarize(s.cart.Store().Snapshot()))
}

type couponRequest struct {
	Code string `json:"code"`
}

type couponResponse struct {
	Result        checkout.CouponResult `json:"result"`
	Summary       checkout.Summary      `json:"summary"`
	Notifications []notify.Notification `json:"notifications"`
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap := s.cart.Store().Snapshot()
	res := s.coupon.Apply(r.Context(), req.Code, snap)

	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, couponResponse{
		Result:        res,
		Summary:       s.coupon.Summarize(snap),
		Notifications: notifications(r),
	})
}

type beginRequest struct {
	Buyer models.Buyer `json:"buyer"`
}

func (s *Server) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pending, err := s.submitter.Begin(r.Context(), req.Buyer)
	if err != nil {
		s.respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, pending)
}

func (s *Server) handleConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	var c checkout.Confirmation
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.submitter.Confirm(r.Context(), c)
	if err != nil {
		s.respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelCheckout(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	respondJSON(w, http.StatusOK, s.submitter.Cancel(r.Context(), req.Reason))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := s.history.List(r.Context(), models.OrderQuery{
		BuyerID: q.Get("buyerId"),
		Cursor:  q.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidCursor) {
			respondError(w, http.StatusBadRequest, "Invalid cursor")
			return
		}
		s.logger.Error("list orders", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (s *Server) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrBuyerRequired),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidTotal),
		errors.Is(err, checkout.ErrInvalidConfirmation),
		errors.Is(err, checkout.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrNoPendingCheckout),
		errors.Is(err, checkout.ErrPaymentMismatch):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrPaymentGateway):
		respondError(w, http.StatusBadGateway, checkout.ErrPaymentGateway.Error())
	case errors.Is(err, checkout.ErrOrderNotRecorded):
		respondError(w, http.StatusInternalServerError, checkout.MsgOrderNotRecorded)
	default:
		s.logger.Error("checkout", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
