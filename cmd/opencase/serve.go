package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/opencase-io/opencase/internal/config"
	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/events"
	"github.com/opencase-io/opencase/internal/handlers"
	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/repository"
	"github.com/opencase-io/opencase/internal/server"
	"github.com/opencase-io/opencase/internal/service"
	"github.com/opencase-io/opencase/internal/statscache"
)

var migrationsPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the case API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations",
		"path to SQL migrations (postgres backend only)")
	rootCmd.AddCommand(serveCmd)
}

// services bundles everything the serve and seed commands need.
type services struct {
	store  docstore.Store
	pub    *events.Publisher
	cache  *statscache.Cache
	cases  *service.CaseService
	alerts *service.AlertService
	users  *service.UserService
	stats  *service.StatsService
}

func (s *services) close(log *logging.Logger) {
	s.pub.Close()
	if err := s.cache.Close(); err != nil {
		log.Error("failed to close stats cache", "error", err)
	}
	if err := s.store.Close(); err != nil {
		log.Error("failed to close store", "error", err)
	}
}

func buildServices(ctx context.Context, cfg *config.Config, log *logging.Logger) (*services, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	store = docstore.Instrument(store)

	var pub *events.Publisher
	if cfg.NATS.Enabled {
		pub, err = events.Connect(cfg.NATS.URL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		log.Info("nats connected", "url", cfg.NATS.URL)
	}

	var cache *statscache.Cache
	if cfg.Redis.Enabled {
		cache, err = statscache.New(cfg.Redis.URL, cfg.Redis.StatsTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("stats cache enabled", "ttl", cfg.Redis.StatsTTL)
	}

	cases := repository.NewCaseRepository(store)
	comments := repository.NewCommentLedger(store)
	files := repository.NewFileRegistry(store)
	alerts := repository.NewAlertRegistry(store)
	users := repository.NewUserDirectory(store)

	return &services{
		store:  store,
		pub:    pub,
		cache:  cache,
		cases:  service.NewCaseService(cases, comments, files, alerts, pub, log),
		alerts: service.NewAlertService(alerts, pub, log),
		users:  service.NewUserService(users),
		stats:  service.NewStatsService(cases, alerts, cache, log),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendOpenSearch:
		store, err := docstore.NewOpenSearchStore(ctx, docstore.OpenSearchConfig{
			URL:         cfg.OpenSearch.URL,
			Username:    cfg.OpenSearch.Username,
			Password:    cfg.OpenSearch.Password,
			Insecure:    cfg.OpenSearch.Insecure,
			IndexPrefix: cfg.OpenSearch.IndexPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open opensearch store: %w", err)
		}
		log.Info("using opensearch store", "url", cfg.OpenSearch.URL)
		return store, nil

	case config.BackendPostgres:
		dsn := cfg.Postgres.DSN()
		if err := runMigrations(dsn); err != nil {
			return nil, err
		}
		store, err := docstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		log.Info("using postgres store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return store, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, data will not survive restarts")
		return docstore.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runMigrations(dsn string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func runServe(ctx context.Context) error {
	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)

	svcs, err := buildServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svcs.close(log)

	h := handlers.New(svcs.cases, svcs.alerts, svcs.users, svcs.stats, log)
	srv := server.New(cfg.Server, server.NewRouter(h, log))

	go func() {
		log.Info("opencase listening", "addr", srv.Addr, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := server.Shutdown(srv, cfg.Server); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
