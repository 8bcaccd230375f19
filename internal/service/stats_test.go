package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/models"
	"github.com/opencase-io/opencase/internal/repository"
	"github.com/opencase-io/opencase/internal/statscache"
)

func newStatsFixture(t *testing.T, cache *statscache.Cache) (*CaseService, *AlertService, *StatsService) {
	t.Helper()
	store := docstore.NewMemoryStore()
	cases := repository.NewCaseRepository(store)
	comments := repository.NewCommentLedger(store)
	files := repository.NewFileRegistry(store)
	alerts := repository.NewAlertRegistry(store)
	return NewCaseService(cases, comments, files, alerts, nil, nil),
		NewAlertService(alerts, nil, nil),
		NewStatsService(cases, alerts, cache, nil)
}

func TestGetStats(t *testing.T) {
	caseSvc, alertSvc, statsSvc := newStatsFixture(t, nil)
	ctx := context.Background()

	mkCase := func(priority string) *models.Case {
		c, err := caseSvc.CreateCase(ctx, &models.CreateCaseRequest{
			Title:         "t",
			Description:   "d",
			Priority:      priority,
			CreatedBy:     "u-1",
			CreatedByName: "Alice",
		})
		require.NoError(t, err)
		return c
	}

	mkCase(models.PriorityHigh)
	mkCase(models.PriorityHigh)
	c3 := mkCase(models.PriorityLow)

	closed := models.CaseStatusClosed
	_, err := caseSvc.UpdateCase(ctx, c3.ID, &models.UpdateCaseRequest{Status: &closed})
	require.NoError(t, err)

	a, err := alertSvc.CreateAlert(ctx, &models.CreateAlertRequest{Title: "t", Severity: models.PriorityCritical})
	require.NoError(t, err)
	_, err = alertSvc.CreateAlert(ctx, &models.CreateAlertRequest{Title: "t", Severity: models.PriorityLow})
	require.NoError(t, err)
	_, err = alertSvc.AcknowledgeAlert(ctx, a.ID)
	require.NoError(t, err)

	stats, err := statsSvc.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalCases)
	assert.Equal(t, 2, stats.OpenCases)
	assert.Equal(t, 0, stats.InProgressCases)
	assert.Equal(t, 1, stats.ClosedCases)
	assert.Equal(t, map[string]int{
		"low": 1, "medium": 0, "high": 2, "critical": 0,
	}, stats.PriorityStats)

	assert.Equal(t, 2, stats.TotalAlerts)
	assert.Equal(t, map[string]int{
		"low": 1, "medium": 0, "high": 0, "critical": 1,
	}, stats.AlertSeverity)
	assert.Equal(t, map[string]int{
		"active": 1, "acknowledged": 1, "completed": 0,
	}, stats.AlertStatusStats)
}

func TestGetStatsEmptyStore(t *testing.T) {
	_, _, statsSvc := newStatsFixture(t, nil)

	stats, err := statsSvc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalCases)
	assert.Equal(t, 0, stats.TotalAlerts)
	assert.Len(t, stats.PriorityStats, 4, "every priority bucket is present even at zero")
	assert.Len(t, stats.AlertStatusStats, 3)
}

func TestGetStatsServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := statscache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	caseSvc, _, statsSvc := newStatsFixture(t, cache)
	ctx := context.Background()

	first, err := statsSvc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.TotalCases)

	_, err = caseSvc.CreateCase(ctx, &models.CreateCaseRequest{
		Title: "t", Description: "d", CreatedBy: "u-1", CreatedByName: "Alice",
	})
	require.NoError(t, err)

	cached, err := statsSvc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.TotalCases, "snapshot is served until the TTL lapses")

	mr.FastForward(2 * time.Minute)

	fresh, err := statsSvc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalCases)
}
