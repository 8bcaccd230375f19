// Package server assembles the chi router and the HTTP server lifecycle.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencase-io/opencase/internal/handlers"
	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/metrics"
)

// NewRouter builds the full route table for the case API.
func NewRouter(h *handlers.Handler, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/stats", h.GetStats)

		r.Route("/cases", func(r chi.Router) {
			r.Post("/", h.CreateCase)
			r.Get("/", h.ListCases)
			r.Get("/{id}", h.GetCase)
			r.Put("/{id}", h.UpdateCase)
			r.Delete("/{id}", h.DeleteCase)

			r.Post("/{id}/comments", h.CreateComment)
			r.Get("/{id}/comments", h.ListComments)

			r.Post("/{id}/files", h.UploadFile)
			r.Get("/{id}/files", h.ListFiles)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Put("/{id}", h.UpdateComment)
			r.Delete("/{id}", h.DeleteComment)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/{id}/download", h.DownloadFile)
			r.Delete("/{id}", h.DeleteFile)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Post("/", h.CreateAlert)
			r.Get("/", h.ListAlerts)
			r.Get("/{id}", h.GetAlert)
			r.Put("/{id}/acknowledge", h.AcknowledgeAlert)
			r.Put("/{id}/complete", h.CompleteAlert)
			r.Post("/{id}/create-case", h.CreateCaseFromAlert)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
		})
	})

	return r
}

// requestLogger logs one line per completed request with the request id.
func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// instrument records request counts and latencies against the matched chi
// route pattern, keeping metric cardinality independent of path parameters.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
