package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencase-io/opencase/internal/httputil"
	"github.com/opencase-io/opencase/internal/models"
)

// CreateAlert handles POST /api/alerts.
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlertRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alert, err := h.alerts.CreateAlert(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, alert)
}

// ListAlerts handles GET /api/alerts.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePagination(r, defaultPageSize, maxPageSize)
	req := &models.ListAlertsRequest{
		Severity: r.URL.Query().Get("severity"),
		Status:   r.URL.Query().Get("status"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}

	alerts, total, err := h.alerts.ListAlerts(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetAlert handles GET /api/alerts/{id}.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.GetAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}

// AcknowledgeAlert handles PUT /api/alerts/{id}/acknowledge.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.AcknowledgeAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}

// CompleteAlert handles PUT /api/alerts/{id}/complete.
func (h *Handler) CompleteAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.CompleteAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}

// CreateCaseFromAlert handles POST /api/alerts/{id}/create-case.
func (h *Handler) CreateCaseFromAlert(w http.ResponseWriter, r *http.Request) {
	var req models.CaseFromAlertRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.cases.CreateCaseFromAlert(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}
