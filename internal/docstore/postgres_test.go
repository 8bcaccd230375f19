package docstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestPostgres starts a PostgreSQL testcontainer, runs migrations, and
// returns a ready store. Gated behind OPENCASE_PG_TEST so the suite stays
// green on machines without Docker.
func setupTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if os.Getenv("OPENCASE_PG_TEST") == "" {
		t.Skip("set OPENCASE_PG_TEST=1 to run PostgreSQL container tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("opencase_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrations: %v", err)
	}

	store, err := NewPostgresStore(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := setupTestPostgres(t)
	ctx := context.Background()

	doc := testDoc{
		ID:        "case-1",
		Title:     "Credential stuffing wave",
		Status:    "open",
		Priority:  "high",
		Tags:      []string{"auth"},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Index(ctx, "cases", doc.ID, doc))

	raw, err := store.Get(ctx, "cases", doc.ID)
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, doc.Title, got.Title)

	// Partial update merges and leaves other fields alone.
	require.NoError(t, store.Update(ctx, "cases", doc.ID, map[string]interface{}{"status": "closed"}))
	raw, err = store.Get(ctx, "cases", doc.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "closed", got.Status)
	assert.Equal(t, doc.Title, got.Title)

	_, err = store.Get(ctx, "cases", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "cases", "missing", map[string]interface{}{"status": "open"}), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "cases", "missing"), ErrNotFound)
}

func TestPostgresStoreSearchAndCount(t *testing.T) {
	store := setupTestPostgres(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	docs := []testDoc{
		{ID: "1", Title: "Phishing report", Status: "open", Priority: "high", Tags: []string{"email"}, CreatedAt: base},
		{ID: "2", Title: "Port scan", Status: "open", Priority: "low", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Old phishing case", Status: "closed", Priority: "high", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, d := range docs {
		require.NoError(t, store.Index(ctx, "cases", d.ID, d))
	}

	raws, total, err := store.Search(ctx, "cases",
		Query{Terms: map[string]string{"status": "open", "priority": "high"}},
		Sort{Field: "created_at", Desc: true}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, raws, 1)

	raws, total, err = store.Search(ctx, "cases", Query{Search: "phishing"},
		Sort{Field: "created_at", Desc: true}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	var newest testDoc
	require.NoError(t, json.Unmarshal(raws[0], &newest))
	assert.Equal(t, "3", newest.ID)

	// Fractional seconds marshal with trailing zeros trimmed, so text order
	// and chronological order disagree; the sort must treat these as times.
	frac := []testDoc{
		{ID: "t1", Title: "First", Status: "noise", CreatedAt: base.Add(100 * time.Millisecond)},
		{ID: "t2", Title: "Second", Status: "noise", CreatedAt: base.Add(150 * time.Millisecond)},
		{ID: "t3", Title: "Third", Status: "noise", CreatedAt: base.Add(time.Second)},
		{ID: "t4", Title: "Fourth", Status: "noise", CreatedAt: base.Add(time.Second + 500*time.Millisecond)},
	}
	for _, d := range frac {
		require.NoError(t, store.Index(ctx, "cases", d.ID, d))
	}
	raws, total, err = store.Search(ctx, "cases",
		Query{Terms: map[string]string{"status": "noise"}},
		Sort{Field: "created_at", Desc: true}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		var d testDoc
		require.NoError(t, json.Unmarshal(raw, &d))
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"t4", "t3", "t2", "t1"}, ids)

	n, err := store.Count(ctx, "cases", Query{Terms: map[string]string{"status": "open"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	deleted, err := store.DeleteByQuery(ctx, "cases", Query{Terms: map[string]string{"status": "open"}})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}
