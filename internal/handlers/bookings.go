package handlers

import (
	"net/http"

	"github.com/badabuilder/marketplace/internal/model"
)

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req model.BookingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	created, err := h.bookings.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err, "Failed to create booking")
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) VerifyBookingPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req model.BookingPaymentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	b, err := h.bookings.ConfirmPayment(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err, "Payment verification failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Payment verified successfully",
		"booking": b,
	})
}

func (h *Handler) OpenBookingPaymentOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	intent, err := h.bookings.OpenPaymentOrder(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err, "Payment order creation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"payment": intent})
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	list, err := h.bookings.ListMine(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch bookings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": list})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Get(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch booking")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"booking": b})
}
