// Package seeder populates a running store with plausible demo data. It goes
// through the service layer so seeded cases carry real system comments and
// correct counters.
package seeder

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/models"
	"github.com/opencase-io/opencase/internal/service"
)

// Options controls how much demo data is generated.
type Options struct {
	Users    int
	Cases    int
	Alerts   int
	Comments int // extra user comments per case, on average
	Seed     int64
}

// DefaultOptions returns a small but representative demo dataset.
func DefaultOptions() Options {
	return Options{Users: 5, Cases: 12, Alerts: 8, Comments: 3}
}

// Seeder generates demo cases, comments, attachments, alerts and users.
type Seeder struct {
	cases  *service.CaseService
	alerts *service.AlertService
	users  *service.UserService
	log    *logging.Logger
	rng    *rand.Rand
}

// New wires a Seeder against the service layer.
func New(cases *service.CaseService, alerts *service.AlertService, users *service.UserService, log *logging.Logger) *Seeder {
	if log == nil {
		log = logging.Default()
	}
	return &Seeder{cases: cases, alerts: alerts, users: users, log: log}
}

var caseTitles = []string{
	"Suspicious login burst from %s",
	"Malware beacon to %s",
	"Phishing campaign targeting %s",
	"Privilege escalation on %s",
	"Unusual data transfer from %s",
	"Brute force attempts against %s",
}

var alertTitles = []string{
	"Impossible travel for %s",
	"Known bad hash seen on %s",
	"DNS tunneling suspected from %s",
	"Failed MFA storm for %s",
}

// Run populates the store. Seed is applied to both gofakeit and the local
// random source so runs are reproducible.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.Seed != 0 {
		gofakeit.Seed(opts.Seed)
		s.rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		s.rng = rand.New(rand.NewSource(gofakeit.Int64()))
	}

	analysts, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return err
	}
	if len(analysts) == 0 && (opts.Cases > 0 || opts.Alerts > 0) {
		// Cases and promoted alerts need an author even when no users
		// were requested.
		fallback, err := s.users.CreateUser(ctx, &models.CreateUserRequest{
			Username: "seed-analyst",
			Email:    "seed-analyst@example.com",
			FullName: "Seed Analyst",
		})
		if err != nil {
			return fmt.Errorf("failed to seed fallback user: %w", err)
		}
		analysts = append(analysts, fallback)
	}
	if err := s.seedCases(ctx, opts, analysts); err != nil {
		return err
	}
	if err := s.seedAlerts(ctx, opts, analysts); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "seeding complete",
		"users", opts.Users, "cases", opts.Cases, "alerts", opts.Alerts)
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.users.CreateUser(ctx, &models.CreateUserRequest{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    gofakeit.Email(),
			FullName: gofakeit.Name(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedCases(ctx context.Context, opts Options, analysts []*models.User) error {
	priorities := []string{
		models.PriorityLow, models.PriorityMedium,
		models.PriorityHigh, models.PriorityCritical,
	}
	statuses := []string{
		models.CaseStatusOpen, models.CaseStatusInProgress, models.CaseStatusClosed,
	}

	for i := 0; i < opts.Cases; i++ {
		creator := analysts[s.rng.Intn(len(analysts))]
		title := fmt.Sprintf(caseTitles[s.rng.Intn(len(caseTitles))], gofakeit.DomainName())

		c, err := s.cases.CreateCase(ctx, &models.CreateCaseRequest{
			Title:         title,
			Description:   gofakeit.Sentence(12),
			Priority:      priorities[s.rng.Intn(len(priorities))],
			Tags:          []string{gofakeit.HackerNoun(), gofakeit.HackerNoun()},
			CreatedBy:     creator.ID,
			CreatedByName: creator.FullName,
		})
		if err != nil {
			return fmt.Errorf("failed to seed case: %w", err)
		}

		for j := 0; j < s.rng.Intn(opts.Comments+1); j++ {
			author := analysts[s.rng.Intn(len(analysts))]
			if _, err := s.cases.AddComment(ctx, c.ID, &models.CreateCommentRequest{
				Content:    gofakeit.Sentence(8),
				Author:     author.ID,
				AuthorName: author.FullName,
			}); err != nil {
				return fmt.Errorf("failed to seed comment: %w", err)
			}
		}

		// Roughly a third of cases leave the open status.
		if status := statuses[s.rng.Intn(len(statuses))]; status != models.CaseStatusOpen {
			if _, err := s.cases.UpdateCase(ctx, c.ID, &models.UpdateCaseRequest{Status: &status}); err != nil {
				return fmt.Errorf("failed to seed case status: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedAlerts(ctx context.Context, opts Options, analysts []*models.User) error {
	severities := []string{
		models.PriorityLow, models.PriorityMedium,
		models.PriorityHigh, models.PriorityCritical,
	}

	for i := 0; i < opts.Alerts; i++ {
		title := fmt.Sprintf(alertTitles[s.rng.Intn(len(alertTitles))], gofakeit.Username())
		alert, err := s.alerts.CreateAlert(ctx, &models.CreateAlertRequest{
			Title:       title,
			Description: gofakeit.Sentence(10),
			Severity:    severities[s.rng.Intn(len(severities))],
			MonitorID:   gofakeit.UUID(),
		})
		if err != nil {
			return fmt.Errorf("failed to seed alert: %w", err)
		}

		switch s.rng.Intn(4) {
		case 1:
			if _, err := s.alerts.AcknowledgeAlert(ctx, alert.ID); err != nil {
				return fmt.Errorf("failed to seed alert status: %w", err)
			}
		case 2:
			if _, err := s.alerts.CompleteAlert(ctx, alert.ID); err != nil {
				return fmt.Errorf("failed to seed alert status: %w", err)
			}
		case 3:
			creator := analysts[s.rng.Intn(len(analysts))]
			if _, err := s.cases.CreateCaseFromAlert(ctx, alert.ID, &models.CaseFromAlertRequest{
				CreatedBy:     creator.ID,
				CreatedByName: creator.FullName,
			}); err != nil {
				return fmt.Errorf("failed to seed case from alert: %w", err)
			}
		}
	}
	return nil
}
