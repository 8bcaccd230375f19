package models

// CreateCaseRequest is the payload for opening a new case.
type CreateCaseRequest struct {
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Priority         string                 `json:"priority,omitempty"`
	Tags             []string               `json:"tags,omitempty"`
	AssignedTo       string                 `json:"assigned_to,omitempty"`
	AssignedToName   string                 `json:"assigned_to_name,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	CreatedByName    string                 `json:"created_by_name"`
	AlertID          string                 `json:"alert_id,omitempty"`
	OpenSearchQuery  map[string]interface{} `json:"opensearch_query,omitempty"`
	VisualizationIDs []string               `json:"visualization_ids,omitempty"`
}

// UpdateCaseRequest carries a partial update. Nil pointers mean "leave as is";
// a present Status re-emits the status-change system comment even when the
// value is unchanged.
type UpdateCaseRequest struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Status           *string   `json:"status,omitempty"`
	Priority         *string   `json:"priority,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	AssignedTo       *string   `json:"assigned_to,omitempty"`
	AssignedToName   *string   `json:"assigned_to_name,omitempty"`
	VisualizationIDs *[]string `json:"visualization_ids,omitempty"`
}

// ListCasesRequest holds the ANDed case filters plus pagination.
type ListCasesRequest struct {
	Status     string
	Priority   string
	AssignedTo string
	CreatedBy  string
	Search     string
	Limit      int
	Offset     int
}

// CreateCommentRequest is the payload for appending a comment to a case.
type CreateCommentRequest struct {
	Content     string `json:"content"`
	Author      string `json:"author"`
	AuthorName  string `json:"author_name"`
	CommentType string `json:"comment_type,omitempty"`
}

// UpdateCommentRequest replaces a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CreateAlertRequest is the payload for ingesting an alert.
type CreateAlertRequest struct {
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Severity        string                 `json:"severity"`
	MonitorID       string                 `json:"monitor_id,omitempty"`
	TriggerID       string                 `json:"trigger_id,omitempty"`
	OpenSearchQuery map[string]interface{} `json:"opensearch_query,omitempty"`
	VisualizationID string                 `json:"visualization_id,omitempty"`
}

// ListAlertsRequest holds alert filters plus pagination.
type ListAlertsRequest struct {
	Severity string
	Status   string
	Limit    int
	Offset   int
}

// CaseFromAlertRequest carries optional overrides when promoting an alert into
// a case. Empty fields fall back to alert-derived defaults.
type CaseFromAlertRequest struct {
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	AssignedTo     string   `json:"assigned_to,omitempty"`
	AssignedToName string   `json:"assigned_to_name,omitempty"`
	CreatedBy      string   `json:"created_by"`
	CreatedByName  string   `json:"created_by_name"`
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Stats is the aggregate rollup returned by GET /api/stats. The shape is
// identical regardless of which document store backs the repositories.
type Stats struct {
	TotalCases       int            `json:"total_cases"`
	OpenCases        int            `json:"open_cases"`
	InProgressCases  int            `json:"in_progress_cases"`
	ClosedCases      int            `json:"closed_cases"`
	PriorityStats    map[string]int `json:"priority_stats"`
	TotalAlerts      int            `json:"total_alerts"`
	AlertSeverity    map[string]int `json:"alert_severity_stats"`
	AlertStatusStats map[string]int `json:"alert_status_stats"`
}
