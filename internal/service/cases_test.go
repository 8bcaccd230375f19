package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/models"
	"github.com/opencase-io/opencase/internal/repository"
)

func newTestServices(t *testing.T) (*CaseService, *AlertService) {
	t.Helper()
	store := docstore.NewMemoryStore()
	cases := repository.NewCaseRepository(store)
	comments := repository.NewCommentLedger(store)
	files := repository.NewFileRegistry(store)
	alerts := repository.NewAlertRegistry(store)
	return NewCaseService(cases, comments, files, alerts, nil, nil),
		NewAlertService(alerts, nil, nil)
}

func createTestCase(t *testing.T, svc *CaseService) *models.Case {
	t.Helper()
	c, err := svc.CreateCase(context.Background(), &models.CreateCaseRequest{
		Title:         "Suspicious login burst",
		Description:   "Multiple failed logins followed by a success",
		CreatedBy:     "u-1",
		CreatedByName: "Alice Chen",
	})
	require.NoError(t, err)
	return c
}

func TestCreateCase(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	c := createTestCase(t, svc)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.CaseStatusOpen, c.Status)
	assert.Equal(t, models.PriorityMedium, c.Priority, "priority defaults to medium")
	assert.Equal(t, 1, c.CommentsCount, "creation system comment is counted")
	assert.Equal(t, 0, c.AttachmentsCount)
	assert.Nil(t, c.ClosedAt)

	comments, err := svc.ListComments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, models.CommentTypeSystem, comments[0].CommentType)
	assert.Equal(t, "Case created by Alice Chen", comments[0].Content)
	assert.Equal(t, "system", comments[0].Author)
}

func TestCreateCaseValidation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateCaseRequest
	}{
		{
			name: "missing title",
			req:  models.CreateCaseRequest{Description: "d", CreatedBy: "u", CreatedByName: "U"},
		},
		{
			name: "missing description",
			req:  models.CreateCaseRequest{Title: "t", CreatedBy: "u", CreatedByName: "U"},
		},
		{
			name: "missing created_by",
			req:  models.CreateCaseRequest{Title: "t", Description: "d", CreatedByName: "U"},
		},
		{
			name: "missing created_by_name",
			req:  models.CreateCaseRequest{Title: "t", Description: "d", CreatedBy: "u"},
		},
		{
			name: "bogus priority",
			req:  models.CreateCaseRequest{Title: "t", Description: "d", CreatedBy: "u", CreatedByName: "U", Priority: "urgent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCase(ctx, &tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestUpdateCaseStatusAppendsSystemComment(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	status := models.CaseStatusInProgress
	updated, err := svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.CaseStatusInProgress, updated.Status)
	assert.Equal(t, 2, updated.CommentsCount, "status comment is counted")
	assert.Nil(t, updated.ClosedAt)

	comments, err := svc.ListComments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Case status changed to in_progress", comments[1].Content)
	assert.Equal(t, models.CommentTypeSystem, comments[1].CommentType)
}

func TestUpdateCaseReassertedStatusStillRecorded(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	status := models.CaseStatusOpen
	updated, err := svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.CommentsCount,
		"re-asserting the current status still appends a system comment")
}

func TestUpdateCaseClosedAtLifecycle(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	closed := models.CaseStatusClosed
	updated, err := svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{Status: &closed})
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedAt)

	reopened := models.CaseStatusOpen
	updated, err = svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{Status: &reopened})
	require.NoError(t, err)
	assert.Nil(t, updated.ClosedAt, "reopening clears closed_at")
}

func TestUpdateCaseNonStatusFieldsAddNoComment(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	title := "Renamed case"
	priority := models.PriorityHigh
	updated, err := svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{
		Title:    &title,
		Priority: &priority,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed case", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, 1, updated.CommentsCount, "only the creation comment exists")
	assert.Equal(t, "Suspicious login burst", c.Title, "original snapshot unchanged")
}

func TestUpdateCaseEmptyRequestIsNoOp(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	updated, err := svc.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{})
	require.NoError(t, err)
	assert.Equal(t, c.UpdatedAt, updated.UpdatedAt)
}

func TestUpdateCaseNotFound(t *testing.T) {
	svc, _ := newTestServices(t)

	title := "x"
	_, err := svc.UpdateCase(context.Background(), "missing", &models.UpdateCaseRequest{Title: &title})
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
}

func TestCommentCountersStayDerived(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	var last *models.Comment
	for i := 0; i < 3; i++ {
		var err error
		last, err = svc.AddComment(ctx, c.ID, &models.CreateCommentRequest{
			Content:    "looked at the auth logs",
			Author:     "u-2",
			AuthorName: "Bob",
		})
		require.NoError(t, err)
		assert.Equal(t, models.CommentTypeUser, last.CommentType)
	}

	got, err := svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CommentsCount, "1 system + 3 user comments")

	require.NoError(t, svc.DeleteComment(ctx, last.ID))

	got, err = svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommentsCount, "counter re-derived after delete")
}

func TestAddCommentToMissingCase(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.AddComment(context.Background(), "missing", &models.CreateCommentRequest{
		Content: "hello", Author: "u-1",
	})
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
}

func TestUpdateComment(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	comment, err := svc.AddComment(ctx, c.ID, &models.CreateCommentRequest{
		Content: "first draft", Author: "u-2", AuthorName: "Bob",
	})
	require.NoError(t, err)
	require.Nil(t, comment.UpdatedAt)

	edited, err := svc.UpdateComment(ctx, comment.ID, &models.UpdateCommentRequest{Content: "second draft"})
	require.NoError(t, err)
	assert.Equal(t, "second draft", edited.Content)
	assert.NotNil(t, edited.UpdatedAt)
}

func TestFileAttachmentLifecycle(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	payload := []byte("PK\x03\x04 not really a zip")
	att, err := svc.UploadFile(ctx, c.ID, "evidence.zip", "application/zip", "u-2", payload)
	require.NoError(t, err)
	assert.Equal(t, "evidence.zip", att.OriginalFilename)
	assert.Equal(t, int64(len(payload)), att.FileSize)
	assert.Contains(t, att.Filename, ".zip", "stored filename keeps the extension")

	got, err := svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AttachmentsCount)

	meta, data, err := svc.DownloadFile(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, att.ID, meta.ID)
	assert.Equal(t, payload, data, "payload survives the round trip byte for byte")

	require.NoError(t, svc.DeleteFile(ctx, att.ID))

	got, err = svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AttachmentsCount)

	_, _, err = svc.DownloadFile(ctx, att.ID)
	assert.ErrorIs(t, err, repository.ErrFileNotFound)
}

func TestUploadFileToMissingCase(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.UploadFile(context.Background(), "missing", "a.txt", "text/plain", "u-1", []byte("x"))
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
}

func TestDeleteCaseCascades(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	victim := createTestCase(t, svc)
	survivor := createTestCase(t, svc)

	_, err := svc.AddComment(ctx, victim.ID, &models.CreateCommentRequest{
		Content: "to be removed", Author: "u-2",
	})
	require.NoError(t, err)
	att, err := svc.UploadFile(ctx, victim.ID, "gone.txt", "text/plain", "u-2", []byte("bye"))
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, survivor.ID, &models.CreateCommentRequest{
		Content: "still here", Author: "u-2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCase(ctx, victim.ID))

	_, err = svc.GetCase(ctx, victim.ID)
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
	_, _, err = svc.DownloadFile(ctx, att.ID)
	assert.ErrorIs(t, err, repository.ErrFileNotFound)

	got, err := svc.GetCase(ctx, survivor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentsCount, "cascade never touches other cases")
}

func TestDeleteCaseNotFound(t *testing.T) {
	svc, _ := newTestServices(t)
	err := svc.DeleteCase(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrCaseNotFound)
}

func TestRecomputeCountersIdempotent(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c := createTestCase(t, svc)

	_, err := svc.AddComment(ctx, c.ID, &models.CreateCommentRequest{Content: "x", Author: "u-2"})
	require.NoError(t, err)

	require.NoError(t, svc.RecomputeCounters(ctx, c.ID))
	first, err := svc.GetCase(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RecomputeCounters(ctx, c.ID))
	second, err := svc.GetCase(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, first.CommentsCount, second.CommentsCount)
	assert.Equal(t, first.AttachmentsCount, second.AttachmentsCount)
}

func TestListCasesFilters(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	mk := func(title, priority, assignedTo string) *models.Case {
		c, err := svc.CreateCase(ctx, &models.CreateCaseRequest{
			Title:         title,
			Description:   "d",
			Priority:      priority,
			AssignedTo:    assignedTo,
			CreatedBy:     "u-1",
			CreatedByName: "Alice",
		})
		require.NoError(t, err)
		return c
	}

	mk("Phishing wave", models.PriorityHigh, "u-2")
	mk("Phishing followup", models.PriorityHigh, "u-3")
	c3 := mk("Malware beacon", models.PriorityLow, "u-2")

	closed := models.CaseStatusClosed
	_, err := svc.UpdateCase(ctx, c3.ID, &models.UpdateCaseRequest{Status: &closed})
	require.NoError(t, err)

	tests := []struct {
		name      string
		req       models.ListCasesRequest
		wantTotal int
	}{
		{"no filters", models.ListCasesRequest{}, 3},
		{"by status", models.ListCasesRequest{Status: models.CaseStatusClosed}, 1},
		{"by priority", models.ListCasesRequest{Priority: models.PriorityHigh}, 2},
		{"priority and assignee ANDed", models.ListCasesRequest{Priority: models.PriorityHigh, AssignedTo: "u-2"}, 1},
		{"text search", models.ListCasesRequest{Search: "phishing"}, 2},
		{"search with no hits", models.ListCasesRequest{Search: "ransomware"}, 0},
		{"unmatched combination", models.ListCasesRequest{Status: models.CaseStatusClosed, Priority: models.PriorityHigh}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := svc.ListCases(ctx, &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Len(t, got, tt.wantTotal)
		})
	}
}

func TestListCasesPagination(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createTestCase(t, svc)
	}

	page, total, err := svc.ListCases(ctx, &models.ListCasesRequest{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	rest, _, err := svc.ListCases(ctx, &models.ListCasesRequest{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestCreateCaseFromAlert(t *testing.T) {
	caseSvc, alertSvc := newTestServices(t)
	ctx := context.Background()

	alert, err := alertSvc.CreateAlert(ctx, &models.CreateAlertRequest{
		Title:           "Beacon to known C2",
		Description:     "Periodic callbacks every 60s",
		Severity:        models.PriorityCritical,
		OpenSearchQuery: map[string]interface{}{"query": map[string]interface{}{"term": map[string]interface{}{"dest.ip": "10.0.0.9"}}},
		VisualizationID: "viz-77",
	})
	require.NoError(t, err)

	c, err := caseSvc.CreateCaseFromAlert(ctx, alert.ID, &models.CaseFromAlertRequest{
		CreatedBy:     "u-1",
		CreatedByName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityHigh, c.Priority, "critical severity maps to high priority")
	assert.Equal(t, "Case for alert: Beacon to known C2", c.Title)
	assert.Equal(t, "Periodic callbacks every 60s", c.Description)
	assert.Equal(t, alert.ID, c.AlertID)
	assert.Equal(t, []string{"viz-77"}, c.VisualizationIDs)
	assert.NotNil(t, c.OpenSearchQuery, "investigation query is carried onto the case")
	assert.Equal(t, 1, c.CommentsCount, "promotion goes through normal case creation")

	linked, err := alertSvc.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, linked.CaseID, "alert is linked back to the case")
}

func TestCreateCaseFromAlertSeverityMapping(t *testing.T) {
	caseSvc, alertSvc := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		severity     string
		wantPriority string
	}{
		{models.PriorityCritical, models.PriorityHigh},
		{models.PriorityHigh, models.PriorityMedium},
		{models.PriorityMedium, models.PriorityMedium},
		{models.PriorityLow, models.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			alert, err := alertSvc.CreateAlert(ctx, &models.CreateAlertRequest{
				Title: "t", Severity: tt.severity,
			})
			require.NoError(t, err)

			c, err := caseSvc.CreateCaseFromAlert(ctx, alert.ID, &models.CaseFromAlertRequest{
				CreatedBy: "u-1", CreatedByName: "Alice",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPriority, c.Priority)
		})
	}
}

func TestCreateCaseFromMissingAlert(t *testing.T) {
	caseSvc, _ := newTestServices(t)

	_, err := caseSvc.CreateCaseFromAlert(context.Background(), "missing", &models.CaseFromAlertRequest{
		CreatedBy: "u-1", CreatedByName: "Alice",
	})
	assert.ErrorIs(t, err, repository.ErrAlertNotFound)
}
