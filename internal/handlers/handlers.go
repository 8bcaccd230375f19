// Package handlers provides the HTTP request handlers for the case API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/opencase-io/opencase/internal/httputil"
	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/repository"
	"github.com/opencase-io/opencase/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// Handler provides the HTTP handlers for the case API.
type Handler struct {
	cases  *service.CaseService
	alerts *service.AlertService
	users  *service.UserService
	stats  *service.StatsService
	log    *logging.Logger
}

// New creates a Handler wired to the given services.
func New(cases *service.CaseService, alerts *service.AlertService, users *service.UserService, stats *service.StatsService, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{
		cases:  cases,
		alerts: alerts,
		users:  users,
		stats:  stats,
		log:    log,
	}
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "opencase",
	})
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// writeServiceError maps service and repository errors onto HTTP statuses.
// Unrecognized errors become a generic 500 so store internals never leak.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError

	switch {
	case errors.Is(err, repository.ErrCaseNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Case not found")
	case errors.Is(err, repository.ErrCommentNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Comment not found")
	case errors.Is(err, repository.ErrFileNotFound):
		httputil.WriteError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, repository.ErrAlertNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Alert not found")
	case errors.Is(err, repository.ErrUserNotFound):
		httputil.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrUserExists):
		httputil.WriteError(w, http.StatusConflict, "Username already exists")
	case errors.As(err, &verr):
		httputil.WriteError(w, http.StatusBadRequest, verr.Error())
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
