package handlers

import (
	"net/http"

	"github.com/badabuilder/marketplace/internal/auth"
	"github.com/badabuilder/marketplace/internal/complaint"
	"github.com/badabuilder/marketplace/internal/model"
)

func (h *Handler) SubmitComplaint(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var req model.ComplaintRequest
	media, ok := h.decodeWithFiles(w, r, &req, "media", complaint.MaxMedia)
	if !ok {
		return
	}
	c, err := h.cases.Submit(r.Context(), userID, req, media)
	if err != nil {
		h.fail(w, r, err, "Failed to create complaint")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"complaint": c})
}

func (h *Handler) MyComplaints(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	list, err := h.cases.Mine(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch complaints")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"complaints": list})
}

func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	c, err := h.cases.Get(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch complaint")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"complaint": c})
}

func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	list, err := h.cases.List(r.Context(), model.ComplaintFilter{Status: r.URL.Query().Get("status"), Page: p})
	if err != nil {
		h.fail(w, r, err, "Failed to fetch complaints")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"complaints": list, "count": len(list)})
}

func (h *Handler) SetComplaintStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req model.ComplaintStatusUpdate
	if !h.decodeJSON(w, r, &req) {
		return
	}
	c, err := h.cases.SetStatus(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err, "Failed to update complaint status")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"complaint": c})
}
