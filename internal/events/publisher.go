package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/models"
)

// Publisher publishes lifecycle events to NATS subjects. A nil Publisher is
// valid and drops all events, so callers never need to branch on whether
// messaging is configured.
type Publisher struct {
	conn *nats.Conn
	log  *logging.Logger
}

// Connect dials the NATS server and returns a Publisher bound to it.
func Connect(url string, log *logging.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("opencase"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Publisher{conn: conn, log: log}, nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

// CaseEvent is the payload published on case lifecycle subjects.
type CaseEvent struct {
	CaseID    string    `json:"case_id"`
	Status    string    `json:"status,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertEvent is the payload published on alert lifecycle subjects.
type AlertEvent struct {
	AlertID   string    `json:"alert_id"`
	Severity  string    `json:"severity,omitempty"`
	Status    string    `json:"status,omitempty"`
	CaseID    string    `json:"case_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CaseCreated publishes a case created event.
func (p *Publisher) CaseCreated(ctx context.Context, c *models.Case) {
	p.publish(ctx, SubjectCasesCreated, &CaseEvent{
		CaseID:    c.ID,
		Status:    c.Status,
		Priority:  c.Priority,
		Timestamp: time.Now().UTC(),
	})
}

// CaseUpdated publishes a case updated event.
func (p *Publisher) CaseUpdated(ctx context.Context, c *models.Case) {
	p.publish(ctx, SubjectCasesUpdated, &CaseEvent{
		CaseID:    c.ID,
		Status:    c.Status,
		Priority:  c.Priority,
		Timestamp: time.Now().UTC(),
	})
}

// CaseDeleted publishes a case deleted event.
func (p *Publisher) CaseDeleted(ctx context.Context, caseID string) {
	p.publish(ctx, SubjectCasesDeleted, &CaseEvent{
		CaseID:    caseID,
		Timestamp: time.Now().UTC(),
	})
}

// AlertCreated publishes an alert created event.
func (p *Publisher) AlertCreated(ctx context.Context, a *models.Alert) {
	p.publish(ctx, SubjectAlertsCreated, &AlertEvent{
		AlertID:   a.ID,
		Severity:  a.Severity,
		Status:    a.Status,
		Timestamp: time.Now().UTC(),
	})
}

// AlertUpdated publishes an alert updated event.
func (p *Publisher) AlertUpdated(ctx context.Context, a *models.Alert) {
	p.publish(ctx, SubjectAlertsUpdated, &AlertEvent{
		AlertID:   a.ID,
		Severity:  a.Severity,
		Status:    a.Status,
		CaseID:    a.CaseID,
		Timestamp: time.Now().UTC(),
	})
}

// publish marshals data to JSON and publishes to the specified subject.
// Publish failures are logged, never surfaced: events are best-effort.
func (p *Publisher) publish(ctx context.Context, subject string, data interface{}) {
	if p == nil || p.conn == nil {
		return
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to marshal event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, bytes); err != nil {
		p.log.WarnContext(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}
