package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencase-io/opencase/internal/httputil"
	"github.com/opencase-io/opencase/internal/models"
)

// CreateCase handles POST /api/cases.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.cases.CreateCase(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// ListCases handles GET /api/cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	page := httputil.ParsePagination(r, defaultPageSize, maxPageSize)
	req := &models.ListCasesRequest{
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		AssignedTo: r.URL.Query().Get("assigned_to"),
		CreatedBy:  r.URL.Query().Get("created_by"),
		Search:     r.URL.Query().Get("search"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	cases, total, err := h.cases.ListCases(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cases":  cases,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetCase handles GET /api/cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.cases.GetCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// UpdateCase handles PUT /api/cases/{id}.
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.cases.UpdateCase(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// DeleteCase handles DELETE /api/cases/{id}.
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := h.cases.DeleteCase(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Case deleted successfully",
	})
}

// CreateComment handles POST /api/cases/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.cases.AddComment(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/cases/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.cases.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

// UpdateComment handles PUT /api/comments/{id}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.cases.UpdateComment(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.cases.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}
