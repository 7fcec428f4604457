package handlers

import (
	"net/http"
	"strconv"

	"github.com/badabuilder/marketplace/internal/model"
)

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.PropertyFilter{Status: q.Get("status")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		f.Offset = n
	}
	props, err := h.listings.ListPublic(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch properties")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"properties": props, "count": len(props)})
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.listings.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch property")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"property": p})
}

func (h *Handler) MyProperties(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	props, err := h.listings.ListMine(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch properties")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"properties": props, "count": len(props)})
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req model.PropertyRequest
	images, ok := h.decodeWithImages(w, r, &req)
	if !ok {
		return
	}
	p, err := h.listings.Create(r.Context(), userID, req, images)
	if err != nil {
		h.fail(w, r, err, "Failed to create property")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Property created successfully",
		"property": p,
	})
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var patch model.PropertyPatch
	images, ok := h.decodeWithImages(w, r, &patch)
	if !ok {
		return
	}
	p, err := h.listings.Update(r.Context(), userID, id, patch, images)
	if err != nil {
		h.fail(w, r, err, "Failed to update property")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Property updated successfully",
		"property": p,
	})
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.listings.Delete(r.Context(), userID, id); err != nil {
		h.fail(w, r, err, "Failed to delete property")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Property deleted successfully"})
}
