// Package service implements the case lifecycle rules on top of the
// repositories: validation, system comments, derived counter reconciliation,
// cascade deletion and alert-to-case promotion.
package service

import (
	"context"
	"fmt"

	"github.com/opencase-io/opencase/internal/models"
)

// CaseRepo is the case persistence surface the services need.
type CaseRepo interface {
	Create(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error)
	Get(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status string) (int, error)
	CountByPriority(ctx context.Context, priority string) (int, error)
}

// CommentRepo is the comment persistence surface the services need.
type CommentRepo interface {
	Append(ctx context.Context, caseID string, req *models.CreateCommentRequest) (*models.Comment, error)
	AppendSystem(ctx context.Context, caseID, content string) (*models.Comment, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Comment, error)
	Update(ctx context.Context, id, content string) (*models.Comment, error)
	Delete(ctx context.Context, id string) (string, error)
	DeleteByCase(ctx context.Context, caseID string) (int, error)
	CountByCase(ctx context.Context, caseID string) (int, error)
}

// FileRepo is the attachment persistence surface the services need.
type FileRepo interface {
	Store(ctx context.Context, caseID, originalFilename, mimeType, uploadedBy string, payload []byte) (*models.FileAttachment, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.FileAttachment, error)
	GetForDownload(ctx context.Context, id string) (*models.FileAttachment, []byte, error)
	Delete(ctx context.Context, id string) (string, error)
	DeleteByCase(ctx context.Context, caseID string) (int, error)
	CountByCase(ctx context.Context, caseID string) (int, error)
}

// AlertRepo is the alert persistence surface the services need.
type AlertRepo interface {
	Create(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error)
	Get(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, req *models.ListAlertsRequest) ([]*models.Alert, int, error)
	Acknowledge(ctx context.Context, id string) (*models.Alert, error)
	Complete(ctx context.Context, id string) (*models.Alert, error)
	SetCaseID(ctx context.Context, id, caseID string) error
	CountBySeverity(ctx context.Context, severity string) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// UserRepo is the user persistence surface the services need.
type UserRepo interface {
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Publisher receives lifecycle events. Implementations must tolerate a nil
// receiver so an unconfigured message bus is a no-op, not a branch at every
// call site.
type Publisher interface {
	CaseCreated(ctx context.Context, c *models.Case)
	CaseUpdated(ctx context.Context, c *models.Case)
	CaseDeleted(ctx context.Context, caseID string)
	AlertCreated(ctx context.Context, a *models.Alert)
	AlertUpdated(ctx context.Context, a *models.Alert)
}

// ValidationError reports a rejected request field. Handlers map it to a
// 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func requireNonEmpty(field, value string) error {
	if value == "" {
		return invalidf(field, "must not be empty")
	}
	return nil
}
