package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/models"
)

// AlertRegistry owns the alerts collection. Alerts have their own lifecycle
// (active, acknowledged, completed) and may be promoted into a case once.
type AlertRegistry struct {
	store docstore.Store
}

// NewAlertRegistry creates an alert registry over the given store.
func NewAlertRegistry(store docstore.Store) *AlertRegistry {
	return &AlertRegistry{store: store}
}

// Create persists a new alert with status active.
func (r *AlertRegistry) Create(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	now := time.Now().UTC()
	a := &models.Alert{
		ID:              newID(),
		Title:           req.Title,
		Description:     req.Description,
		Severity:        req.Severity,
		Status:          models.AlertStatusActive,
		MonitorID:       req.MonitorID,
		TriggerID:       req.TriggerID,
		CreatedAt:       now,
		UpdatedAt:       now,
		OpenSearchQuery: req.OpenSearchQuery,
		VisualizationID: req.VisualizationID,
	}

	if err := r.store.Index(ctx, docstore.CollectionAlerts, a.ID, a); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return a, nil
}

// Get returns the alert or ErrAlertNotFound.
func (r *AlertRegistry) Get(ctx context.Context, id string) (*models.Alert, error) {
	raw, err := r.store.Get(ctx, docstore.CollectionAlerts, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	var a models.Alert
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode alert: %w", err)
	}
	return &a, nil
}

// List returns alerts matching the filters, newest first, plus the total
// match count.
func (r *AlertRegistry) List(ctx context.Context, req *models.ListAlertsRequest) ([]*models.Alert, int, error) {
	q := docstore.Query{Terms: map[string]string{}}
	if req.Severity != "" {
		q.Terms["severity"] = req.Severity
	}
	if req.Status != "" {
		q.Terms["status"] = req.Status
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	raws, total, err := r.store.Search(ctx, docstore.CollectionAlerts, q,
		docstore.Sort{Field: "created_at", Desc: true}, req.Offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(raws))
	for _, raw := range raws {
		var a models.Alert
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, 0, fmt.Errorf("failed to decode alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, total, nil
}

// Acknowledge moves the alert to acknowledged and stamps acknowledged_at.
func (r *AlertRegistry) Acknowledge(ctx context.Context, id string) (*models.Alert, error) {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]interface{}{
		"status":          models.AlertStatusAcknowledged,
		"acknowledged_at": now,
		"updated_at":      now,
	})
}

// Complete moves the alert to completed and stamps completed_at.
func (r *AlertRegistry) Complete(ctx context.Context, id string) (*models.Alert, error) {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]interface{}{
		"status":       models.AlertStatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	})
}

// SetCaseID records the forward reference to the case created from this alert.
func (r *AlertRegistry) SetCaseID(ctx context.Context, id, caseID string) error {
	_, err := r.update(ctx, id, map[string]interface{}{
		"case_id":    caseID,
		"updated_at": time.Now().UTC(),
	})
	return err
}

// CountBySeverity returns the number of alerts with the given severity; an
// empty severity counts everything.
func (r *AlertRegistry) CountBySeverity(ctx context.Context, severity string) (int, error) {
	q := docstore.Query{Terms: map[string]string{}}
	if severity != "" {
		q.Terms["severity"] = severity
	}
	n, err := r.store.Count(ctx, docstore.CollectionAlerts, q)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of alerts with the given status.
func (r *AlertRegistry) CountByStatus(ctx context.Context, status string) (int, error) {
	n, err := r.store.Count(ctx, docstore.CollectionAlerts,
		docstore.Query{Terms: map[string]string{"status": status}})
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

func (r *AlertRegistry) update(ctx context.Context, id string, fields map[string]interface{}) (*models.Alert, error) {
	if err := r.store.Update(ctx, docstore.CollectionAlerts, id, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return r.Get(ctx, id)
}
