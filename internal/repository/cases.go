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

// CaseRepository owns the cases collection.
type CaseRepository struct {
	store docstore.Store
}

// NewCaseRepository creates a case repository over the given store.
func NewCaseRepository(store docstore.Store) *CaseRepository {
	return &CaseRepository{store: store}
}

// Create persists a new case with generated id, timestamps and defaults:
// status open, priority medium, zero counters.
func (r *CaseRepository) Create(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error) {
	now := time.Now().UTC()

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	c := &models.Case{
		ID:               newID(),
		Title:            req.Title,
		Description:      req.Description,
		Status:           models.CaseStatusOpen,
		Priority:         priority,
		Tags:             tags,
		AssignedTo:       req.AssignedTo,
		AssignedToName:   req.AssignedToName,
		CreatedBy:        req.CreatedBy,
		CreatedByName:    req.CreatedByName,
		CreatedAt:        now,
		UpdatedAt:        now,
		AlertID:          req.AlertID,
		OpenSearchQuery:  req.OpenSearchQuery,
		VisualizationIDs: req.VisualizationIDs,
	}

	if err := r.store.Index(ctx, docstore.CollectionCases, c.ID, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}
	return c, nil
}

// Get returns the case or ErrCaseNotFound.
func (r *CaseRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	raw, err := r.store.Get(ctx, docstore.CollectionCases, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	var c models.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode case: %w", err)
	}
	return &c, nil
}

// List returns cases matching the ANDed filters, newest first, plus the total
// match count for pagination.
func (r *CaseRepository) List(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error) {
	q := docstore.Query{Terms: map[string]string{}, Search: req.Search}
	if req.Status != "" {
		q.Terms["status"] = req.Status
	}
	if req.Priority != "" {
		q.Terms["priority"] = req.Priority
	}
	if req.AssignedTo != "" {
		q.Terms["assigned_to"] = req.AssignedTo
	}
	if req.CreatedBy != "" {
		q.Terms["created_by"] = req.CreatedBy
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	raws, total, err := r.store.Search(ctx, docstore.CollectionCases, q,
		docstore.Sort{Field: "created_at", Desc: true}, req.Offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}

	cases := make([]*models.Case, 0, len(raws))
	for _, raw := range raws {
		var c models.Case
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, 0, fmt.Errorf("failed to decode case: %w", err)
		}
		cases = append(cases, &c)
	}
	return cases, total, nil
}

// Update merges the given fields into the case and refreshes updated_at.
// Entering closed stamps closed_at; any other status clears it, so a reopened
// case carries no stale close timestamp.
func (r *CaseRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	partial := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		partial[k] = v
	}
	partial["updated_at"] = time.Now().UTC()

	if status, ok := fields["status"]; ok {
		if status == models.CaseStatusClosed {
			partial["closed_at"] = time.Now().UTC()
		} else {
			partial["closed_at"] = nil
		}
	}

	if err := r.store.Update(ctx, docstore.CollectionCases, id, partial); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

// Delete removes the case document only. Cascading comment/file deletion is
// the service's job and must happen first.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, docstore.CollectionCases, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

// CountByStatus returns the number of cases with the given status; an empty
// status counts everything.
func (r *CaseRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	q := docstore.Query{Terms: map[string]string{}}
	if status != "" {
		q.Terms["status"] = status
	}
	n, err := r.store.Count(ctx, docstore.CollectionCases, q)
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return n, nil
}

// CountByPriority returns the number of cases with the given priority.
func (r *CaseRepository) CountByPriority(ctx context.Context, priority string) (int, error) {
	n, err := r.store.Count(ctx, docstore.CollectionCases,
		docstore.Query{Terms: map[string]string{"priority": priority}})
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return n, nil
}
