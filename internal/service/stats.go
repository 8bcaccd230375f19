package service

import (
	"context"
	"fmt"

	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/models"
	"github.com/opencase-io/opencase/internal/statscache"
)

// StatsService computes the dashboard rollup from count queries, with an
// optional short-lived Redis cache in front.
type StatsService struct {
	cases  CaseRepo
	alerts AlertRepo
	cache  *statscache.Cache
	log    *logging.Logger
}

// NewStatsService wires a StatsService. cache may be nil, which disables
// caching entirely.
func NewStatsService(cases CaseRepo, alerts AlertRepo, cache *statscache.Cache, log *logging.Logger) *StatsService {
	if log == nil {
		log = logging.Default()
	}
	return &StatsService{cases: cases, alerts: alerts, cache: cache, log: log}
}

// GetStats returns the aggregate case and alert statistics. Cached snapshots
// are served when fresh; cache write failures are logged, never surfaced.
func (s *StatsService) GetStats(ctx context.Context) (*models.Stats, error) {
	if cached := s.cache.Get(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, stats); err != nil {
		s.log.WarnContext(ctx, "failed to cache stats snapshot", "error", err)
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		PriorityStats:    make(map[string]int),
		AlertSeverity:    make(map[string]int),
		AlertStatusStats: make(map[string]int),
	}

	var err error
	if stats.TotalCases, err = s.cases.CountByStatus(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	if stats.OpenCases, err = s.cases.CountByStatus(ctx, models.CaseStatusOpen); err != nil {
		return nil, fmt.Errorf("failed to count open cases: %w", err)
	}
	if stats.InProgressCases, err = s.cases.CountByStatus(ctx, models.CaseStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to count in-progress cases: %w", err)
	}
	if stats.ClosedCases, err = s.cases.CountByStatus(ctx, models.CaseStatusClosed); err != nil {
		return nil, fmt.Errorf("failed to count closed cases: %w", err)
	}

	for _, priority := range []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical} {
		n, err := s.cases.CountByPriority(ctx, priority)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s priority cases: %w", priority, err)
		}
		stats.PriorityStats[priority] = n
	}

	if stats.TotalAlerts, err = s.alerts.CountBySeverity(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	for _, severity := range []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical} {
		n, err := s.alerts.CountBySeverity(ctx, severity)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s severity alerts: %w", severity, err)
		}
		stats.AlertSeverity[severity] = n
	}
	for _, status := range []string{models.AlertStatusActive, models.AlertStatusAcknowledged, models.AlertStatusCompleted} {
		n, err := s.alerts.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s alerts: %w", status, err)
		}
		stats.AlertStatusStats[status] = n
	}

	return stats, nil
}
