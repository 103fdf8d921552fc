// Package app assembles configuration, adapters and use cases into a runnable
// application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"ProspectPulse/internal/config"
	"ProspectPulse/internal/connection"
	"ProspectPulse/internal/identity"
	"ProspectPulse/internal/infrastructure/enrich"
	"ProspectPulse/internal/infrastructure/graph"
	"ProspectPulse/internal/infrastructure/ingest"
	"ProspectPulse/internal/infrastructure/llm"
	"ProspectPulse/internal/infrastructure/lock"
	"ProspectPulse/internal/infrastructure/mailbox"
	"ProspectPulse/internal/infrastructure/scheduler"
	"ProspectPulse/internal/infrastructure/storage"
	"ProspectPulse/internal/infrastructure/telegram"
	"ProspectPulse/internal/logging"
	"ProspectPulse/internal/ports"
	"ProspectPulse/internal/source"
	"ProspectPulse/internal/usecase"
	"ProspectPulse/pkg/metrics"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	runner    *usecase.Runner
	scheduler *usecase.Scheduler
	metrics   *metrics.Manager
	logger    *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	contacts := storage.NewContactRepository(db)
	prospects := storage.NewProspectRepository(db)

	graphClient := graph.NewClient(cfg.Graph.BaseURL, cfg.Graph.APIKey)

	registry := source.NewRegistry()
	registry.Register(ingest.NewNetworkSource(graphClient))
	registry.Register(ingest.NewCSVSource())
	registry.Register(ingest.NewMailboxSource(mailbox.NewClient(cfg.Mailbox.BaseURL, cfg.Mailbox.APIKey)))

	var enricher ports.EnrichmentProvider
	if cfg.Enrichment.APIKey != "" {
		enricher = enrich.NewClient(cfg.Enrichment.BaseURL, cfg.Enrichment.APIKey)
	}

	var matcher ports.RelevanceMatcher
	if cfg.Matcher.APIKey != "" {
		matcher = llm.NewMatcher(cfg.Matcher)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	mgr := metrics.New(nil)

	syncer := usecase.NewSyncer(usecase.SyncDeps{
		Registry: registry,
		Contacts: contacts,
		Resolver: identity.NewResolver(contacts),
		Enricher: enricher,
		Metrics:  mgr,
		Logger:   baseLogger.With("component", "sync"),
		Config:   cfg.Sync,
	})

	scorer := usecase.NewProspectScorer(usecase.ScorerDeps{
		Prospects: prospects,
		Contacts:  contacts,
		Finder:    connection.NewFinder(graphClient, baseLogger.With("component", "finder")),
		Matcher:   matcher,
		Metrics:   mgr,
		Logger:    baseLogger.With("component", "scoring"),
		Config:    cfg.Sync,
	})

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Syncer:   syncer,
		Scorer:   scorer,
		Lock:     lock.New(cfg.Lock.Dir),
		Journal:  storage.NewRunJournal(db),
		Notifier: notifier,
		Metrics:  mgr,
		Logger:   baseLogger.With("component", "runner"),
		Teams:    cfg.Teams,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())

	return &Application{
		cfg:       cfg,
		db:        db,
		runner:    runner,
		scheduler: usecase.NewScheduler(driver, runner),
		metrics:   mgr,
		logger:    baseLogger.With("component", "app"),
	}, nil
}

// RunOnce executes a single sync + scoring cycle for every configured team.
func (a *Application) RunOnce(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.runner.RunAll(ctx, now)
}

// Run starts the metrics endpoint and the recurring schedule, then blocks
// until the context is done.
func (a *Application) Run(ctx context.Context) error {
	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics listener stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.db.Close()
}
