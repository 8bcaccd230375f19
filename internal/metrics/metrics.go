package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencase_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opencase_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Case lifecycle metrics
	CasesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opencase_cases_created_total",
			Help: "Total number of cases created",
		},
	)

	CasesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opencase_cases_deleted_total",
			Help: "Total number of cases deleted",
		},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencase_case_status_changes_total",
			Help: "Total number of case status changes",
		},
		[]string{"status"},
	)

	// Counter reconciliation metrics
	RecomputesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opencase_counter_recomputes_total",
			Help: "Total number of child counter recomputations",
		},
	)

	RecomputeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opencase_counter_recompute_errors_total",
			Help: "Total number of failed child counter recomputations",
		},
	)

	// Attachment metrics
	FileBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opencase_file_bytes_stored_total",
			Help: "Total bytes of file attachment data stored",
		},
	)

	// Alert metrics
	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencase_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"severity"},
	)

	// Document store metrics
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opencase_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencase_store_operation_errors_total",
			Help: "Total number of failed document store operations",
		},
		[]string{"operation"},
	)
)
