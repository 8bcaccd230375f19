package service

import (
	"context"
	"fmt"

	"github.com/opencase-io/opencase/internal/events"
	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/metrics"
	"github.com/opencase-io/opencase/internal/models"
)

// AlertService owns the alert lifecycle: ingestion, listing and the
// active -> acknowledged -> completed status progression.
type AlertService struct {
	alerts AlertRepo
	events Publisher
	log    *logging.Logger
}

// NewAlertService wires an AlertService.
func NewAlertService(alerts AlertRepo, pub Publisher, log *logging.Logger) *AlertService {
	if pub == nil {
		pub = (*events.Publisher)(nil)
	}
	if log == nil {
		log = logging.Default()
	}
	return &AlertService{alerts: alerts, events: pub, log: log}
}

// CreateAlert validates and records a new alert in the active status.
func (s *AlertService) CreateAlert(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	if err := requireNonEmpty("title", req.Title); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("severity", req.Severity); err != nil {
		return nil, err
	}
	if !models.ValidSeverity(req.Severity) {
		return nil, invalidf("severity", "unknown severity %q", req.Severity)
	}

	alert, err := s.alerts.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(alert.Severity).Inc()
	s.events.AlertCreated(ctx, alert)
	s.log.InfoContext(ctx, "alert created", "alert_id", alert.ID, "severity", alert.Severity)
	return alert, nil
}

// GetAlert returns a single alert by id.
func (s *AlertService) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.alerts.Get(ctx, id)
}

// ListAlerts returns the filtered, paginated alert list and the total number
// of matches before pagination.
func (s *AlertService) ListAlerts(ctx context.Context, req *models.ListAlertsRequest) ([]*models.Alert, int, error) {
	if req.Severity != "" && !models.ValidSeverity(req.Severity) {
		return nil, 0, invalidf("severity", "unknown severity %q", req.Severity)
	}
	if req.Status != "" && !validAlertStatus(req.Status) {
		return nil, 0, invalidf("status", "unknown status %q", req.Status)
	}
	return s.alerts.List(ctx, req)
}

// AcknowledgeAlert marks an alert acknowledged. Completed alerts stay
// completed; acknowledging one again is rejected.
func (s *AlertService) AcknowledgeAlert(ctx context.Context, id string) (*models.Alert, error) {
	current, err := s.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.AlertStatusCompleted {
		return nil, invalidf("status", "alert is already completed")
	}

	alert, err := s.alerts.Acknowledge(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.AlertUpdated(ctx, alert)
	s.log.InfoContext(ctx, "alert acknowledged", "alert_id", id)
	return alert, nil
}

// CompleteAlert marks an alert completed, from either the active or the
// acknowledged status.
func (s *AlertService) CompleteAlert(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.alerts.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.AlertUpdated(ctx, alert)
	s.log.InfoContext(ctx, "alert completed", "alert_id", id)
	return alert, nil
}

func validAlertStatus(s string) bool {
	switch s {
	case models.AlertStatusActive, models.AlertStatusAcknowledged, models.AlertStatusCompleted:
		return true
	}
	return false
}
