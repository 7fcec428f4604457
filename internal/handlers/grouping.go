package handlers

import (
	"net/http"

	"github.com/badabuilder/marketplace/internal/model"
)

func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offers.ListOpen(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch live grouping properties")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"properties": offers})
}

func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	o, err := h.offers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch live grouping property")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"property": o})
}

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req model.OfferRequest
	images, ok := h.decodeWithImages(w, r, &req)
	if !ok {
		return
	}
	o, err := h.offers.Create(r.Context(), userID, req, images)
	if err != nil {
		h.fail(w, r, err, "Failed to create live grouping property")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Live grouping property created successfully",
		"property": o,
	})
}

func (h *Handler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var patch model.OfferPatch
	images, ok := h.decodeWithImages(w, r, &patch)
	if !ok {
		return
	}
	o, err := h.offers.Update(r.Context(), userID, id, patch, images)
	if err != nil {
		h.fail(w, r, err, "Failed to update live grouping property")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Live grouping property updated successfully",
		"property": o,
	})
}

func (h *Handler) JoinOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	o, err := h.offers.Join(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to join group")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Successfully joined the group",
		"property": o,
	})
}
