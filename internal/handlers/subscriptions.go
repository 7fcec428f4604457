package handlers

import (
	"net/http"

	"github.com/badabuilder/marketplace/internal/subscription"
)

type createOrderRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"plans": subscription.Plans()})
}

func (h *Handler) CreateSubscriptionOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	order, err := h.subs.CreateOrder(r.Context(), userID, req.PlanID)
	if err != nil {
		h.fail(w, r, err, "Failed to create order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) VerifySubscriptionPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req subscription.VerifyRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	status, err := h.subs.Verify(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err, "Payment verification failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Subscription activated successfully",
		"subscription": status,
	})
}

func (h *Handler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	status, err := h.subs.Status(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to get subscription status")
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}
