package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	CaseID      string     `json:"case_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

func TestMemoryStoreIndexGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc := testDoc{ID: "a", Title: "Suspicious login", Status: "open", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Index(ctx, "cases", "a", doc))

	raw, err := s.Get(ctx, "cases", "a")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Suspicious login", got.Title)
	assert.Equal(t, "open", got.Status)

	_, err = s.Get(ctx, "cases", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	closed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Index(ctx, "cases", "a", testDoc{ID: "a", Status: "closed", ClosedAt: &closed}))

	// Explicit null clears a field.
	require.NoError(t, s.Update(ctx, "cases", "a", map[string]interface{}{
		"status":    "open",
		"closed_at": nil,
	}))

	raw, err := s.Get(ctx, "cases", "a")
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "open", got.Status)
	assert.Nil(t, got.ClosedAt)

	err = s.Update(ctx, "cases", "missing", map[string]interface{}{"status": "open"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := []testDoc{
		{ID: "1", Title: "Phishing campaign", Status: "open", Priority: "high", Tags: []string{"email"}, CreatedAt: base},
		{ID: "2", Title: "Malware outbreak", Status: "open", Priority: "low", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Lost laptop", Description: "phishing link clicked", Status: "closed", Priority: "high", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, d := range docs {
		require.NoError(t, s.Index(ctx, "cases", d.ID, d))
	}

	tests := []struct {
		name    string
		query   Query
		wantIDs []string
	}{
		{
			name:    "single term",
			query:   Query{Terms: map[string]string{"status": "open"}},
			wantIDs: []string{"2", "1"},
		},
		{
			name:    "terms are ANDed",
			query:   Query{Terms: map[string]string{"status": "open", "priority": "high"}},
			wantIDs: []string{"1"},
		},
		{
			name:    "search matches title and description",
			query:   Query{Search: "phishing"},
			wantIDs: []string{"3", "1"},
		},
		{
			name:    "search matches tags exactly",
			query:   Query{Search: "email"},
			wantIDs: []string{"1"},
		},
		{
			name:    "no match",
			query:   Query{Terms: map[string]string{"status": "in_progress"}},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws, total, err := s.Search(ctx, "cases", tt.query, Sort{Field: "created_at", Desc: true}, 0, 100)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantIDs), total)

			ids := make([]string, 0, len(raws))
			for _, raw := range raws {
				var d testDoc
				require.NoError(t, json.Unmarshal(raw, &d))
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMemoryStoreSearchPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, s.Index(ctx, "cases", id, testDoc{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	raws, total, err := s.Search(ctx, "cases", Query{}, Sort{Field: "created_at"}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, raws, 2)

	var first testDoc
	require.NoError(t, json.Unmarshal(raws[0], &first))
	assert.Equal(t, "b", first.ID)
}

func TestMemoryStoreCountAndDeleteByQuery(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Index(ctx, "comments", id, map[string]string{"id": id, "case_id": "case-a"}))
	}
	require.NoError(t, s.Index(ctx, "comments", "4", map[string]string{"id": "4", "case_id": "case-b"}))

	n, err := s.Count(ctx, "comments", Query{Terms: map[string]string{"case_id": "case-a"}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deleted, err := s.DeleteByQuery(ctx, "comments", Query{Terms: map[string]string{"case_id": "case-a"}})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	n, err = s.Count(ctx, "comments", Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, "cases", "a", map[string]string{"id": "a"}))
	require.NoError(t, s.Delete(ctx, "cases", "a"))
	assert.ErrorIs(t, s.Delete(ctx, "cases", "a"), ErrNotFound)
}
