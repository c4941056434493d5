// Package reconcile backfills the gap between the highest persisted height
// and the live chain tip.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/indexing/metrics"
	"github.com/ecash-community/metachronik/internal/infra/storage"
	"github.com/ecash-community/metachronik/internal/ingest"
)

// ErrAlreadyRunning is returned when a run is requested while another run
// is still in flight.
var ErrAlreadyRunning = errors.New("reconcile: run already in progress")

// Aggregator recomputes day rollups for the dates a run touched.
type Aggregator interface {
	AggregateDates(ctx context.Context, dates []string) error
}

// FailureSink receives heights that could not be processed, for later
// retry. May be nil.
type FailureSink interface {
	EnqueueHeight(ctx context.Context, height int64, reason string) error
}

const (
	defaultBatchSize   = 10
	defaultHeightDelay = 100 * time.Millisecond
	defaultBatchDelay  = 500 * time.Millisecond
)

// Config holds reconciliation pacing settings.
type Config struct {
	BatchSize   int           `yaml:"batch_size"`
	HeightDelay time.Duration `yaml:"height_delay"`
	BatchDelay  time.Duration `yaml:"batch_delay"`
}

// Engine walks missing heights up to the tip in small batches. A failed
// height is logged, reported to the failure sink and skipped; it never
// stalls the rest of the run.
type Engine struct {
	client    chronik.Client
	blocks    storage.BlockRepository
	processor ingest.Processor
	agg       Aggregator
	failures  FailureSink

	batchSize   int
	heightDelay time.Duration
	batchDelay  time.Duration

	running atomic.Bool
}

// NewEngine creates a reconciliation engine. failures may be nil.
func NewEngine(
	client chronik.Client,
	blocks storage.BlockRepository,
	processor ingest.Processor,
	agg Aggregator,
	failures FailureSink,
	cfg Config,
) *Engine {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	heightDelay := cfg.HeightDelay
	if heightDelay == 0 {
		heightDelay = defaultHeightDelay
	}
	batchDelay := cfg.BatchDelay
	if batchDelay == 0 {
		batchDelay = defaultBatchDelay
	}
	return &Engine{
		client:      client,
		blocks:      blocks,
		processor:   processor,
		agg:         agg,
		failures:    failures,
		batchSize:   batchSize,
		heightDelay: heightDelay,
		batchDelay:  batchDelay,
	}
}

// Run reconciles the mirror against the tip: interior gaps between the
// lowest and highest stored heights are filled first, then
// [highest persisted + 1, tip]. Overlapping runs are rejected with
// ErrAlreadyRunning: a second caller can rely on the active run covering
// its gap, since the tip is re-read from upstream.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	info, err := e.client.BlockchainInfo(ctx)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch tip: %w", err)
	}
	metrics.ChainTipHeight.Set(float64(info.TipHeight))

	highest, err := e.blocks.HighestHeight(ctx)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return err
	}

	heights, err := e.pendingHeights(ctx, highest, info.TipHeight)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return err
	}

	if len(heights) == 0 {
		log.Debug("Mirror is at tip, nothing to reconcile", "height", highest)
		metrics.ReconcileRuns.WithLabelValues("noop").Inc()
		return nil
	}

	log.Info("Reconciling heights",
		"blocks", len(heights), "first", heights[0], "last", heights[len(heights)-1])

	dates := make([]string, 0, len(heights))
	var processed, skipped, failed int64

	for batchStart := 0; batchStart < len(heights); batchStart += e.batchSize {
		batchEnd := batchStart + e.batchSize
		if batchEnd > len(heights) {
			batchEnd = len(heights)
		}

		for i := batchStart; i < batchEnd; i++ {
			if err := ctx.Err(); err != nil {
				metrics.ReconcileRuns.WithLabelValues("canceled").Inc()
				return err
			}
			height := heights[i]

			exists, err := e.blocks.ExistsAtHeight(ctx, height)
			if err != nil {
				metrics.ReconcileRuns.WithLabelValues("error").Inc()
				return err
			}
			if exists {
				skipped++
				continue
			}

			block, err := e.processor.ProcessHeight(ctx, height)
			if err != nil {
				failed++
				log.Warn("Failed to process height, skipping", "height", height, "error", err)
				e.reportFailure(ctx, height, err)
				continue
			}
			processed++
			dates = append(dates, domain.DateOfTimestamp(block.Timestamp))
			metrics.MirrorHeight.Set(float64(block.Height))

			if i < batchEnd-1 {
				e.sleep(ctx, e.heightDelay)
			}
		}

		if batchEnd < len(heights) {
			e.sleep(ctx, e.batchDelay)
		}
	}

	if len(dates) > 0 && e.agg != nil {
		if err := e.agg.AggregateDates(ctx, dates); err != nil {
			metrics.ReconcileRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("aggregate reconciled dates: %w", err)
		}
	}

	log.Info("Reconciliation complete",
		"processed", processed, "skipped", skipped, "failed", failed)
	metrics.ReconcileRuns.WithLabelValues("ok").Inc()
	return nil
}

// pendingHeights is every height the run has to look at, ascending:
// interior gaps of the stored range followed by the heights above the
// mirror up to the tip.
func (e *Engine) pendingHeights(ctx context.Context, highest, tip int64) ([]int64, error) {
	var heights []int64

	lowest, err := e.blocks.LowestHeight(ctx)
	if err != nil {
		return nil, err
	}
	if lowest > 0 && highest > lowest+1 {
		gaps, err := e.blocks.MissingHeights(ctx, lowest+1, highest-1)
		if err != nil {
			return nil, err
		}
		heights = append(heights, gaps...)
	}

	for h := highest + 1; h <= tip; h++ {
		heights = append(heights, h)
	}
	return heights, nil
}

// Running reports whether a run is in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) reportFailure(ctx context.Context, height int64, cause error) {
	if e.failures == nil {
		return
	}
	if err := e.failures.EnqueueHeight(ctx, height, cause.Error()); err != nil {
		slog.Warn("Failed to enqueue height for retry", "height", height, "error", err)
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
