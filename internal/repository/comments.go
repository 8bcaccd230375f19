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

// systemAuthor identifies comments generated by the case service itself.
const (
	systemAuthor     = "system"
	systemAuthorName = "System"
)

// CommentLedger owns the comments collection. Callers are responsible for
// verifying the owning case exists and for recomputing case counters after
// any append or delete.
type CommentLedger struct {
	store docstore.Store
}

// NewCommentLedger creates a comment ledger over the given store.
func NewCommentLedger(store docstore.Store) *CommentLedger {
	return &CommentLedger{store: store}
}

// Append persists a new comment on the case. The comment type defaults to
// user when the request leaves it empty.
func (l *CommentLedger) Append(ctx context.Context, caseID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	commentType := req.CommentType
	if commentType == "" {
		commentType = models.CommentTypeUser
	}

	c := &models.Comment{
		ID:          newID(),
		CaseID:      caseID,
		Author:      req.Author,
		AuthorName:  req.AuthorName,
		Content:     req.Content,
		CommentType: commentType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := l.store.Index(ctx, docstore.CollectionComments, c.ID, c); err != nil {
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}
	return c, nil
}

// AppendSystem records a lifecycle event as a system-typed comment.
func (l *CommentLedger) AppendSystem(ctx context.Context, caseID, content string) (*models.Comment, error) {
	return l.Append(ctx, caseID, &models.CreateCommentRequest{
		Content:     content,
		Author:      systemAuthor,
		AuthorName:  systemAuthorName,
		CommentType: models.CommentTypeSystem,
	})
}

// ListByCase returns all comments on the case in chronological order, oldest
// first. Display order must match creation order.
func (l *CommentLedger) ListByCase(ctx context.Context, caseID string) ([]*models.Comment, error) {
	raws, _, err := l.store.Search(ctx, docstore.CollectionComments,
		docstore.Query{Terms: map[string]string{"case_id": caseID}},
		docstore.Sort{Field: "created_at"}, 0, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]*models.Comment, 0, len(raws))
	for _, raw := range raws {
		var c models.Comment
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, nil
}

// Update replaces the comment's content and stamps updated_at.
func (l *CommentLedger) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	now := time.Now().UTC()
	err := l.store.Update(ctx, docstore.CollectionComments, id, map[string]interface{}{
		"content":    content,
		"updated_at": now,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return l.get(ctx, id)
}

// Delete removes a comment and returns the owning case id so the caller can
// recompute that case's counters.
func (l *CommentLedger) Delete(ctx context.Context, id string) (string, error) {
	c, err := l.get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := l.store.Delete(ctx, docstore.CollectionComments, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", ErrCommentNotFound
		}
		return "", fmt.Errorf("failed to delete comment: %w", err)
	}
	return c.CaseID, nil
}

// DeleteByCase removes every comment referencing the case.
func (l *CommentLedger) DeleteByCase(ctx context.Context, caseID string) (int, error) {
	n, err := l.store.DeleteByQuery(ctx, docstore.CollectionComments,
		docstore.Query{Terms: map[string]string{"case_id": caseID}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete case comments: %w", err)
	}
	return n, nil
}

// CountByCase returns the live number of comments referencing the case.
func (l *CommentLedger) CountByCase(ctx context.Context, caseID string) (int, error) {
	n, err := l.store.Count(ctx, docstore.CollectionComments,
		docstore.Query{Terms: map[string]string{"case_id": caseID}})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

func (l *CommentLedger) get(ctx context.Context, id string) (*models.Comment, error) {
	raw, err := l.store.Get(ctx, docstore.CollectionComments, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	var c models.Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode comment: %w", err)
	}
	return &c, nil
}
