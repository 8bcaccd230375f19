package service

import (
	"context"
	"fmt"

	"github.com/opencase-io/opencase/internal/events"
	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/metrics"
	"github.com/opencase-io/opencase/internal/models"
)

// CaseService owns the case lifecycle: creation with its system comment,
// partial updates, the status-change audit trail, comment and attachment
// mutations, counter reconciliation and cascade deletion.
type CaseService struct {
	cases    CaseRepo
	comments CommentRepo
	files    FileRepo
	alerts   AlertRepo
	events   Publisher
	log      *logging.Logger
}

// NewCaseService wires a CaseService. events may be a nil *events.Publisher;
// log falls back to the default logger when nil.
func NewCaseService(cases CaseRepo, comments CommentRepo, files FileRepo, alerts AlertRepo, pub Publisher, log *logging.Logger) *CaseService {
	if pub == nil {
		pub = (*events.Publisher)(nil)
	}
	if log == nil {
		log = logging.Default()
	}
	return &CaseService{
		cases:    cases,
		comments: comments,
		files:    files,
		alerts:   alerts,
		events:   pub,
		log:      log,
	}
}

// CreateCase validates the request, persists the case, appends the
// "Case created by ..." system comment and returns the case with its counters
// reconciled (one comment, zero attachments).
func (s *CaseService) CreateCase(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error) {
	if err := requireNonEmpty("title", req.Title); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("description", req.Description); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("created_by", req.CreatedBy); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("created_by_name", req.CreatedByName); err != nil {
		return nil, err
	}
	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		return nil, invalidf("priority", "unknown priority %q", req.Priority)
	}

	created, err := s.cases.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	if _, err := s.comments.AppendSystem(ctx, created.ID, fmt.Sprintf("Case created by %s", req.CreatedByName)); err != nil {
		return nil, fmt.Errorf("failed to record creation comment: %w", err)
	}
	s.recompute(ctx, created.ID)

	result, err := s.cases.Get(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	metrics.CasesCreated.Inc()
	s.events.CaseCreated(ctx, result)
	s.log.InfoContext(ctx, "case created",
		"case_id", result.ID, "priority", result.Priority, "created_by", result.CreatedBy)
	return result, nil
}

// GetCase returns a single case by id.
func (s *CaseService) GetCase(ctx context.Context, id string) (*models.Case, error) {
	return s.cases.Get(ctx, id)
}

// ListCases returns the filtered, paginated case list and the total number of
// matches before pagination.
func (s *CaseService) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error) {
	if req.Status != "" && !models.ValidCaseStatus(req.Status) {
		return nil, 0, invalidf("status", "unknown status %q", req.Status)
	}
	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		return nil, 0, invalidf("priority", "unknown priority %q", req.Priority)
	}
	return s.cases.List(ctx, req)
}

// UpdateCase applies a partial update. A present Status field appends the
// "Case status changed to ..." system comment even when the value is
// unchanged; re-asserting a status is treated as an auditable event.
func (s *CaseService) UpdateCase(ctx context.Context, id string, req *models.UpdateCaseRequest) (*models.Case, error) {
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !models.ValidCaseStatus(*req.Status) {
		return nil, invalidf("status", "unknown status %q", *req.Status)
	}
	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		return nil, invalidf("priority", "unknown priority %q", *req.Priority)
	}
	if req.Title != nil && *req.Title == "" {
		return nil, invalidf("title", "must not be empty")
	}

	fields := updateFields(req)
	if len(fields) == 0 {
		return current, nil
	}

	if err := s.cases.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	if req.Status != nil {
		msg := fmt.Sprintf("Case status changed to %s", *req.Status)
		if _, err := s.comments.AppendSystem(ctx, id, msg); err != nil {
			return nil, fmt.Errorf("failed to record status comment: %w", err)
		}
		metrics.StatusChanges.WithLabelValues(*req.Status).Inc()
		s.recompute(ctx, id)
	}

	result, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.CaseUpdated(ctx, result)
	s.log.InfoContext(ctx, "case updated", "case_id", id, "fields", len(fields))
	return result, nil
}

// DeleteCase removes a case together with all of its comments, attachment
// metadata and attachment payloads.
func (s *CaseService) DeleteCase(ctx context.Context, id string) error {
	if _, err := s.cases.Get(ctx, id); err != nil {
		return err
	}

	removedComments, err := s.comments.DeleteByCase(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete case comments: %w", err)
	}
	removedFiles, err := s.files.DeleteByCase(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete case attachments: %w", err)
	}
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}

	metrics.CasesDeleted.Inc()
	s.events.CaseDeleted(ctx, id)
	s.log.InfoContext(ctx, "case deleted",
		"case_id", id, "comments_removed", removedComments, "files_removed", removedFiles)
	return nil
}

// AddComment appends a user comment to an existing case and reconciles the
// case's comment counter.
func (s *CaseService) AddComment(ctx context.Context, caseID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := requireNonEmpty("content", req.Content); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("author", req.Author); err != nil {
		return nil, err
	}
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}

	comment, err := s.comments.Append(ctx, caseID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}
	s.recompute(ctx, caseID)

	return comment, nil
}

// ListComments returns a case's comments oldest first.
func (s *CaseService) ListComments(ctx context.Context, caseID string) ([]*models.Comment, error) {
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.comments.ListByCase(ctx, caseID)
}

// UpdateComment replaces a comment's content and stamps its updated_at.
func (s *CaseService) UpdateComment(ctx context.Context, id string, req *models.UpdateCommentRequest) (*models.Comment, error) {
	if err := requireNonEmpty("content", req.Content); err != nil {
		return nil, err
	}
	return s.comments.Update(ctx, id, req.Content)
}

// DeleteComment removes a comment and reconciles the owning case's counter.
func (s *CaseService) DeleteComment(ctx context.Context, id string) error {
	caseID, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.recompute(ctx, caseID)
	return nil
}

// UploadFile stores an attachment on an existing case and reconciles the
// case's attachment counter.
func (s *CaseService) UploadFile(ctx context.Context, caseID, originalFilename, mimeType, uploadedBy string, payload []byte) (*models.FileAttachment, error) {
	if err := requireNonEmpty("filename", originalFilename); err != nil {
		return nil, err
	}
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}

	attachment, err := s.files.Store(ctx, caseID, originalFilename, mimeType, uploadedBy, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	metrics.FileBytesStored.Add(float64(len(payload)))
	s.recompute(ctx, caseID)

	return attachment, nil
}

// ListFiles returns a case's attachment metadata, newest first.
func (s *CaseService) ListFiles(ctx context.Context, caseID string) ([]*models.FileAttachment, error) {
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.files.ListByCase(ctx, caseID)
}

// DownloadFile returns an attachment's metadata and raw content.
func (s *CaseService) DownloadFile(ctx context.Context, id string) (*models.FileAttachment, []byte, error) {
	return s.files.GetForDownload(ctx, id)
}

// DeleteFile removes an attachment (metadata and payload) and reconciles the
// owning case's counter.
func (s *CaseService) DeleteFile(ctx context.Context, id string) error {
	caseID, err := s.files.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.recompute(ctx, caseID)
	return nil
}

// CreateCaseFromAlert promotes an alert into a case. The case inherits the
// alert's investigation context (query, visualization) and a priority derived
// from the alert severity, and the alert is linked back to the new case.
func (s *CaseService) CreateCaseFromAlert(ctx context.Context, alertID string, req *models.CaseFromAlertRequest) (*models.Case, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}

	createReq := &models.CreateCaseRequest{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        priorityFromSeverity(alert.Severity),
		Tags:            req.Tags,
		AssignedTo:      req.AssignedTo,
		AssignedToName:  req.AssignedToName,
		CreatedBy:       req.CreatedBy,
		CreatedByName:   req.CreatedByName,
		AlertID:         alert.ID,
		OpenSearchQuery: alert.OpenSearchQuery,
	}
	if createReq.Title == "" {
		createReq.Title = fmt.Sprintf("Case for alert: %s", alert.Title)
	}
	if createReq.Description == "" {
		createReq.Description = alert.Description
	}
	if createReq.Description == "" {
		createReq.Description = fmt.Sprintf("Case created from alert %s", alert.ID)
	}
	if alert.VisualizationID != "" {
		createReq.VisualizationIDs = []string{alert.VisualizationID}
	}

	created, err := s.CreateCase(ctx, createReq)
	if err != nil {
		return nil, err
	}

	if err := s.alerts.SetCaseID(ctx, alert.ID, created.ID); err != nil {
		return nil, fmt.Errorf("failed to link alert %s to case %s: %w", alert.ID, created.ID, err)
	}
	if linked, err := s.alerts.Get(ctx, alert.ID); err == nil {
		s.events.AlertUpdated(ctx, linked)
	}

	s.log.InfoContext(ctx, "case created from alert",
		"case_id", created.ID, "alert_id", alert.ID, "severity", alert.Severity)
	return created, nil
}

// RecomputeCounters re-derives a case's comment and attachment counters from
// the live child documents. The operation is idempotent.
func (s *CaseService) RecomputeCounters(ctx context.Context, caseID string) error {
	commentCount, err := s.comments.CountByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to count comments: %w", err)
	}
	fileCount, err := s.files.CountByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to count attachments: %w", err)
	}
	metrics.RecomputesTotal.Inc()
	return s.cases.Update(ctx, caseID, map[string]interface{}{
		"comments_count":    commentCount,
		"attachments_count": fileCount,
	})
}

// recompute runs RecomputeCounters best-effort: a failure leaves the counters
// stale until the next child mutation, never rolls back the mutation itself.
func (s *CaseService) recompute(ctx context.Context, caseID string) {
	if err := s.RecomputeCounters(ctx, caseID); err != nil {
		metrics.RecomputeErrors.Inc()
		s.log.ErrorContext(ctx, "counter recompute failed", "case_id", caseID, "error", err)
	}
}

// updateFields turns the non-nil fields of a partial update into the map
// written to the store.
func updateFields(req *models.UpdateCaseRequest) map[string]interface{} {
	fields := make(map[string]interface{})
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.Tags != nil {
		fields["tags"] = *req.Tags
	}
	if req.AssignedTo != nil {
		fields["assigned_to"] = *req.AssignedTo
	}
	if req.AssignedToName != nil {
		fields["assigned_to_name"] = *req.AssignedToName
	}
	if req.VisualizationIDs != nil {
		fields["visualization_ids"] = *req.VisualizationIDs
	}
	return fields
}

// priorityFromSeverity maps an alert severity onto the promoted case's
// priority: critical stays urgent, everything else starts at medium.
func priorityFromSeverity(severity string) string {
	if severity == models.PriorityCritical {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}
