// Package control wires the pipeline together and manages its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/ecash-community/metachronik/internal/aggregator"
	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/config"
	"github.com/ecash-community/metachronik/internal/health"
	redisclient "github.com/ecash-community/metachronik/internal/infra/redis"
	"github.com/ecash-community/metachronik/internal/infra/storage"
	"github.com/ecash-community/metachronik/internal/infra/storage/memory"
	"github.com/ecash-community/metachronik/internal/infra/storage/postgres"
	"github.com/ecash-community/metachronik/internal/ingest"
	"github.com/ecash-community/metachronik/internal/livefeed"
	"github.com/ecash-community/metachronik/internal/pricefeed"
	"github.com/ecash-community/metachronik/internal/reconcile"
	"github.com/ecash-community/metachronik/internal/retry"
)

// Indexer is the main application struct managing the pipeline lifecycle.
type Indexer struct {
	cfg *config.AppConfig

	db          *postgres.DB
	redisClient *redisclient.Client

	engine       *reconcile.Engine
	listener     *livefeed.Listener
	retryWorker  *retry.Worker
	healthServer *health.Server

	log *slog.Logger
}

// NewIndexer creates an Indexer with all dependencies initialized.
func NewIndexer(cfg *config.AppConfig) (*Indexer, error) {
	// 1. Storage
	var blockRepo storage.BlockRepository
	var dayRepo storage.DayRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		blockRepo = postgres.NewBlockRepo(db)
		dayRepo = postgres.NewDayRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		blockRepo = memory.NewBlockRepo(store)
		dayRepo = memory.NewDayRepo(store)
		slog.Warn("No database configured, using volatile in-memory storage")
	}

	// 2. Upstream client and price source
	client := chronik.NewHTTPClient(cfg.Chronik)
	agg := aggregator.New(dayRepo, pricefeed.NewCoinGecko(cfg.Pricefeed))

	// 3. Optional retry queue
	var redisClient *redisclient.Client
	var queue *redisclient.RetryQueue
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, retry queue disabled", "error", err)
		} else {
			queue = redisclient.NewRetryQueue(redisClient)
			slog.Info("Retry queue enabled")
		}
	}

	// 4. Pipeline components, one processor per entry path
	var reconcileSink reconcile.FailureSink
	var liveSink livefeed.FailureSink
	if queue != nil {
		reconcileSink = queue
		liveSink = queue
	}

	engine := reconcile.NewEngine(
		client,
		blockRepo,
		ingest.NewBlockProcessor(client, blockRepo, "reconcile"),
		agg,
		reconcileSink,
		cfg.Reconcile,
	)

	listener := livefeed.NewListener(
		client,
		blockRepo,
		ingest.NewBlockProcessor(client, blockRepo, "live"),
		agg,
		engine,
		liveSink,
	)

	var retryWorker *retry.Worker
	if queue != nil {
		retryWorker = retry.NewWorker(
			queue,
			ingest.NewBlockProcessor(client, blockRepo, "retry"),
			agg,
			cfg.Indexing.RetryInterval,
		)
	}

	// 5. Health
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}
	var depth health.QueueDepth
	if queue != nil {
		depth = queue
	}
	monitor := health.NewMonitor(client, blockRepo, pinger, depth, engine)
	healthServer := health.NewServer(monitor, cfg.Server.Port)

	return &Indexer{
		cfg:          cfg,
		db:           db,
		redisClient:  redisClient,
		engine:       engine,
		listener:     listener,
		retryWorker:  retryWorker,
		healthServer: healthServer,
		log:          slog.Default(),
	}, nil
}

// Start brings the pipeline up: health server, catch-up reconciliation,
// live feed, retry worker.
func (i *Indexer) Start(ctx context.Context) error {
	go func() {
		if err := i.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			i.log.Error("Health server failed", "error", err)
		}
	}()

	if i.db != nil {
		i.db.StartMetricsCollector(ctx)
	}

	// Catch up to the tip before listening so the feed starts gap-free.
	i.log.Info("Running startup reconciliation")
	if err := i.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		i.log.Error("Startup reconciliation failed, live feed will fill in", "error", err)
	}

	go func() {
		if err := i.listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			i.log.Error("Live feed stopped", "error", err)
		}
	}()

	if i.retryWorker != nil {
		go i.retryWorker.Run(ctx)
	}

	if interval := i.cfg.Indexing.ReconcileInterval; interval > 0 {
		go i.runPeriodicReconcile(ctx, interval)
	}

	return nil
}

func (i *Indexer) runPeriodicReconcile(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := i.engine.Run(ctx)
			if err != nil && !errors.Is(err, reconcile.ErrAlreadyRunning) && !errors.Is(err, context.Canceled) {
				i.log.Error("Periodic reconciliation failed", "error", err)
			}
		}
	}
}

// Stop shuts the pipeline down.
func (i *Indexer) Stop(ctx context.Context) error {
	i.log.Info("Stopping indexer...")

	if err := i.healthServer.Stop(ctx); err != nil {
		i.log.Warn("Failed to stop health server", "error", err)
	}
	if i.redisClient != nil {
		if err := i.redisClient.Close(); err != nil {
			i.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			i.log.Warn("Failed to close database", "error", err)
		}
	}

	i.log.Info("Indexer stopped")
	return nil
}
