package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pollmanager "pollgov/contexts/governance/poll-manager"
	"pollgov/contexts/governance/poll-manager/adapters/memory"
	postgresadapter "pollgov/contexts/governance/poll-manager/adapters/postgres"
	"pollgov/contexts/governance/poll-manager/adapters/system"
	"pollgov/contexts/governance/poll-manager/application/commands"
	workerapp "pollgov/contexts/governance/poll-manager/application/workers"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/platform/config"
	"pollgov/internal/platform/db"
	"pollgov/internal/platform/httpserver"
	"pollgov/internal/platform/messaging"
	"pollgov/internal/platform/metrics"
	"pollgov/internal/shared/events"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	relay    *relayLoop
	bus      *messaging.Bus
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	bus      *messaging.Bus
	relay    *relayLoop
	logger   *slog.Logger
}

// relayLoop drains the outbox on a fixed interval.
type relayLoop struct {
	relay    workerapp.OutboxRelay
	interval time.Duration
	metrics  *metrics.Collector
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	settings := settingsFrom(cfg)
	var (
		store  ports.UnitOfWork
		outbox ports.OutboxRepository
		pg     *db.Postgres
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(context.Background(), cfg.PostgresDSN, poolOptions(cfg), logger)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, settings, logger)
		if err := repo.Migrate(context.Background()); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate poll schema: %w", err)
		}
		store, outbox = repo, repo
	} else {
		logger.Warn("POSTGRES_DSN not set, poll state is kept in memory",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		repo := memory.NewStore(settings)
		store, outbox = repo, repo
	}

	deps := pollmanager.Dependencies{
		Store: store,
		Clock: system.IntervalClock{
			Genesis:  cfg.GenesisTime,
			Interval: cfg.BlockInterval,
		},
		Authorities: system.NewStaticAuthorityRegistry(cfg.Authorities...),
		Ledger:      system.NewRecordingLedger(logger),
		Hasher:      system.SHA256Hasher{},
		IDGen:       system.UUIDGenerator{},
		Logger:      logger,
	}
	metricsHandler := collectorHandler(collector)
	if collector != nil {
		deps.Metrics = collector
	}
	module := pollmanager.NewModule(deps)

	app := &APIApp{
		server:   httpserver.New(module, metricsHandler, logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}
	// The worker process only sees a postgres outbox; an in-memory outbox has
	// to be drained by the API process itself.
	if pg == nil {
		bus := messaging.NewBus(0, logger)
		app.bus = bus
		app.relay = &relayLoop{
			relay: workerapp.OutboxRelay{
				Outbox:    outbox,
				Publisher: bus,
				Clock:     system.SystemClock{},
				BatchSize: cfg.OutboxBatchSize,
				Logger:    logger,
			},
			interval: cfg.OutboxPollInterval,
			metrics:  collector,
		}
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(context.Background(), cfg.PostgresDSN, poolOptions(cfg), logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(0, logger)
	repo := postgresadapter.NewRepository(pg.DB, settingsFrom(cfg), logger)
	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		relay: &relayLoop{
			relay: workerapp.OutboxRelay{
				Outbox:    repo,
				Publisher: bus,
				Clock:     system.SystemClock{},
				BatchSize: cfg.OutboxBatchSize,
				Logger:    logger,
			},
			interval: cfg.OutboxPollInterval,
		},
		logger: logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if a.bus != nil {
		subscribeAudit(groupCtx, a.bus, a.logger)
	}
	if a.relay != nil {
		group.Go(func() error {
			return a.relay.run(groupCtx, a.logger)
		})
	}
	return group.Wait()
}

// Close stops the HTTP server and releases the database. Every step runs
// even when an earlier one fails.
func (a *APIApp) Close() error {
	var result *multierror.Error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close postgres: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	subscribeAudit(ctx, w.bus, w.logger)
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.relay.interval.String(),
	)
	return w.relay.run(ctx, w.logger)
}

func (w *WorkerApp) Close() error {
	var result *multierror.Error
	if w.postgres != nil {
		if err := w.postgres.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close postgres: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func (l *relayLoop) run(ctx context.Context, logger *slog.Logger) error {
	interval := l.interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		published, err := l.relay.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			// a failed batch is retried on the next tick
			logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		if l.metrics != nil {
			l.metrics.OutboxPublished(published)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// subscribeAudit logs every poll event delivered on the bus.
func subscribeAudit(ctx context.Context, bus *messaging.Bus, logger *slog.Logger) {
	for _, eventType := range commands.EventTypes {
		bus.Subscribe(ctx, eventType, "poll-audit-log", func(_ context.Context, event events.Envelope) error {
			logger.Info("poll event delivered",
				"event", "poll_event_delivered",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"partition_key", event.PartitionKey,
				"height", event.Height,
			)
			return nil
		})
	}
}

func settingsFrom(cfg config.Config) entities.Settings {
	return entities.Settings{
		CreationFee: cfg.CreationFee,
		MaxPolls:    cfg.MaxPolls,
	}
}

func collectorHandler(collector *metrics.Collector) http.Handler {
	if collector == nil {
		return nil
	}
	return collector.Handler()
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

func poolOptions(cfg config.Config) db.Options {
	return db.Options{
		MaxOpenConns:    cfg.PostgresMaxConns,
		ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
	}
}
