package handlers

import (
	"net/http"

	"github.com/badabuilder/marketplace/internal/model"
)

func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req model.LeadRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	l, err := h.leads.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to create lead")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"lead": l})
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	list, err := h.leads.List(r.Context(), p)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch leads")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"leads": list, "count": len(list)})
}
