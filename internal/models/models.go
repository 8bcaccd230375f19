// Package models defines the case-management domain types shared across
// repositories, services and handlers.
package models

import "time"

// Case status values.
const (
	CaseStatusOpen       = "open"
	CaseStatusInProgress = "in_progress"
	CaseStatusClosed     = "closed"
)

// Case priority values.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Comment types. System comments record lifecycle events and are generated
// by the case service, never directly by users.
const (
	CommentTypeUser   = "user"
	CommentTypeSystem = "system"
)

// Alert status values.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusCompleted    = "completed"
)

// Case represents a tracked incident. The counter fields
// (CommentsCount, AttachmentsCount) are derived: they always equal the live
// number of comment/file documents referencing this case and are written only
// by the case service's counter recompute.
type Case struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Status           string                 `json:"status"`
	Priority         string                 `json:"priority"`
	Tags             []string               `json:"tags"`
	AssignedTo       string                 `json:"assigned_to,omitempty"`
	AssignedToName   string                 `json:"assigned_to_name,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	CreatedByName    string                 `json:"created_by_name"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ClosedAt         *time.Time             `json:"closed_at,omitempty"`
	CommentsCount    int                    `json:"comments_count"`
	AttachmentsCount int                    `json:"attachments_count"`
	AlertID          string                 `json:"alert_id,omitempty"`
	OpenSearchQuery  map[string]interface{} `json:"opensearch_query,omitempty"`
	VisualizationIDs []string               `json:"visualization_ids,omitempty"`
}

// Comment is a single entry in a case's discussion thread.
type Comment struct {
	ID          string     `json:"id"`
	CaseID      string     `json:"case_id"`
	Author      string     `json:"author"`
	AuthorName  string     `json:"author_name"`
	Content     string     `json:"content"`
	CommentType string     `json:"comment_type"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// FileAttachment holds attachment metadata. The payload lives in a separate
// collection so metadata listings never carry file bytes.
type FileAttachment struct {
	ID               string    `json:"id"`
	CaseID           string    `json:"case_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadedBy       string    `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// FilePayload is the stored content of an attachment, kept apart from the
// metadata document. Data is base64-encoded by encoding/json.
type FilePayload struct {
	ID     string `json:"id"`
	CaseID string `json:"case_id"`
	Data   []byte `json:"data"`
}

// Alert is an externally sourced signal that may be promoted into a case.
type Alert struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Severity        string                 `json:"severity"`
	Status          string                 `json:"status"`
	MonitorID       string                 `json:"monitor_id,omitempty"`
	TriggerID       string                 `json:"trigger_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	AcknowledgedAt  *time.Time             `json:"acknowledged_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CaseID          string                 `json:"case_id,omitempty"`
	OpenSearchQuery map[string]interface{} `json:"opensearch_query,omitempty"`
	VisualizationID string                 `json:"visualization_id,omitempty"`
}

// User identifies an analyst who authors cases and comments.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCaseStatus reports whether s is a known case status.
func ValidCaseStatus(s string) bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known case priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a known alert severity. Severities share
// the priority scale.
func ValidSeverity(s string) bool {
	return ValidPriority(s)
}
