// Package app assembles the routing components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/care-router-mcp-server/internal/database"
	"github.com/care-router-mcp-server/internal/directory"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/interview"
	"github.com/care-router-mcp-server/internal/metrics"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/care-router-mcp-server/pkg/external"
	"github.com/sirupsen/logrus"
)

// App holds the wired components shared by the HTTP, MCP and CLI entry points
type App struct {
	Config      *domain.Config
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
	Decision    domain.DecisionService
	Directory   domain.SchedulingDirectory
	Optimizer   *pipeline.Optimizer
	Interviewer *interview.Interviewer
	Sessions    *interview.Store

	closers []func() error
}

// Options overrides pieces of the default wiring, mainly for tests
type Options struct {
	// Decision replaces the HTTP decision-service client
	Decision domain.DecisionService
	// Clock replaces time.Now for the directory and the pipeline
	Clock func() time.Time
}

// New builds every component. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *domain.Config, logger *logrus.Logger, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	decision, err := a.decisionService(opts.Decision)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Decision = decision

	dir, cleanup, err := OpenDirectory(ctx, cfg, opts.Clock, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Directory = dir
	a.closers = append(a.closers, cleanup)

	pipelineOpts := pipeline.OptionsFrom(cfg.Pipeline)
	pipelineOpts.Observer = a.Metrics
	pipelineOpts.Clock = opts.Clock
	a.Optimizer = pipeline.NewOptimizer(a.Decision, a.Directory, pipelineOpts, logger)

	a.Interviewer = interview.NewInterviewer(a.Decision, a.Metrics, logger)
	sessions, err := interview.NewStore(cfg.Interview.SessionCapacity, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = sessions

	logger.WithFields(logrus.Fields{
		"directory":           cfg.Directory.Backend,
		"cache":               cfg.Cache.Enabled,
		"specialist_fallback": cfg.Pipeline.SpecialistFallback,
	}).Info("Application wired")
	return a, nil
}

// decisionService wraps the decision client with breakers, timeouts and the parse cache
func (a *App) decisionService(override domain.DecisionService) (domain.DecisionService, error) {
	client := override
	if client == nil {
		c, err := external.NewDecisionClient(external.DecisionClientConfigFrom(a.Config.Decision), a.Logger)
		if err != nil {
			return nil, err
		}
		client = c
	}

	cache, err := external.NewParseCache(a.Config.Cache, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	a.closers = append(a.closers, cache.Close)

	return external.NewResilientDecisionService(client, external.ResilienceOptions{
		Breaker:     a.Config.Decision.Breaker,
		CallTimeout: a.Config.Decision.Timeout,
		Cache:       cache,
		Observer:    a.Metrics,
	}, a.Logger), nil
}

// Close releases every resource in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenDirectory opens the configured scheduling directory
func OpenDirectory(ctx context.Context, cfg *domain.Config, clock func() time.Time, logger *logrus.Logger) (domain.SchedulingDirectory, func() error, error) {
	if cfg.Directory.Backend == domain.DirectorySimulator {
		return directory.NewSimulator(cfg.Directory.Seed, clock, logger), func() error { return nil }, nil
	}
	return OpenStore(ctx, cfg, clock, logger)
}

// OpenStore opens a SQL-backed directory store. The cleanup func closes the
// store and any connection pool behind it.
func OpenStore(ctx context.Context, cfg *domain.Config, clock func() time.Time, logger *logrus.Logger) (directory.Store, func() error, error) {
	switch cfg.Directory.Backend {
	case domain.DirectorySQLite:
		store, err := directory.NewSQLiteStore(cfg.Directory.SQLitePath, clock, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite directory: %w", err)
		}
		return store, store.Close, nil
	case domain.DirectoryPostgres:
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres directory: %w", err)
		}
		store, err := directory.NewPostgresStore(db, clock, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() error {
			err := store.Close()
			db.Close()
			return err
		}, nil
	default:
		return nil, nil, domain.NewConfigurationError("directory.backend",
			fmt.Sprintf("backend %q has no store", cfg.Directory.Backend))
	}
}

// SeedDirectory fills the configured SQL store from the simulator
func SeedDirectory(ctx context.Context, cfg *domain.Config, days int, clock func() time.Time, logger *logrus.Logger) (int, error) {
	if days <= 0 {
		days = cfg.Directory.SeedDays
	}
	store, cleanup, err := OpenStore(ctx, cfg, clock, logger)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	n, err := directory.Seed(ctx, store, directory.NewSimulator(cfg.Directory.Seed, clock, logger), days)
	if err != nil {
		return 0, err
	}
	logger.WithFields(logrus.Fields{
		"backend": cfg.Directory.Backend,
		"days":    days,
		"slots":   n,
	}).Info("Directory seeded")
	return n, nil
}

// Migrate applies the postgres schema migrations in the given direction
func Migrate(ctx context.Context, cfg *domain.Config, direction string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(database.ConfigFrom(cfg.Database).URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Run(ctx, direction)
}
