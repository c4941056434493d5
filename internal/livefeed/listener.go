// Package livefeed follows the finalized-block event stream and keeps the
// mirror in lockstep with the chain tip.
package livefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/indexing/metrics"
	"github.com/ecash-community/metachronik/internal/infra/storage"
	"github.com/ecash-community/metachronik/internal/ingest"
	"github.com/ecash-community/metachronik/internal/reconcile"
)

// Reconciler fills the gap between the mirror and the tip. Satisfied by
// *reconcile.Engine.
type Reconciler interface {
	Run(ctx context.Context) error
}

// Aggregator recomputes the rollup for the date a block landed on.
type Aggregator interface {
	AggregateDay(ctx context.Context, date string) error
}

// FailureSink receives heights that failed processing. May be nil.
type FailureSink interface {
	EnqueueHeight(ctx context.Context, height int64, reason string) error
}

// Listener consumes finalized-block events. One block is handled at a
// time; sequencing is driven by the persisted mirror height, so a height
// that failed to land keeps showing up as a gap until reconciliation fills
// it. Overlap between an in-flight block and a reconcile run is harmless
// because persisting is idempotent.
type Listener struct {
	client     chronik.Client
	blocks     storage.BlockRepository
	processor  ingest.Processor
	agg        Aggregator
	reconciler Reconciler
	failures   FailureSink

	busy atomic.Bool

	wg sync.WaitGroup
}

// NewListener creates a live-feed listener. failures may be nil.
func NewListener(
	client chronik.Client,
	blocks storage.BlockRepository,
	processor ingest.Processor,
	agg Aggregator,
	reconciler Reconciler,
	failures FailureSink,
) *Listener {
	return &Listener{
		client:     client,
		blocks:     blocks,
		processor:  processor,
		agg:        agg,
		reconciler: reconciler,
		failures:   failures,
	}
}

// Run subscribes and consumes events until ctx is done or the subscription
// closes. The caller is expected to have reconciled to the tip first so the
// feed starts from a gap-free mirror.
func (l *Listener) Run(ctx context.Context) error {
	highest, err := l.blocks.HighestHeight(ctx)
	if err != nil {
		return fmt.Errorf("read mirror height: %w", err)
	}

	sub, err := l.client.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	slog.Info("Live feed started", "from_height", highest)

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				l.wg.Wait()
				if err := sub.Err(); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("subscription ended: %w", err)
				}
				return nil
			}
			l.handle(ctx, ev)
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev chronik.BlockEvent) {
	switch ev.Type {
	case chronik.EventBlockFinalized:
	case chronik.EventBlockInvalidated:
		// Finalized rows are immutable; an invalidation after
		// finalization is upstream churn we deliberately ignore.
		slog.Warn("Ignoring invalidated block", "height", ev.Height)
		return
	default:
		return
	}

	metrics.ChainTipHeight.Set(float64(ev.Height))

	// The mirror height is the sequencing cursor. A block that failed to
	// persist never advances it, so the next event lands in the gap branch
	// and reconciliation recovers the hole instead of skipping past it.
	highest, err := l.blocks.HighestHeight(ctx)
	if err != nil {
		slog.Error("Failed to read mirror height", "error", err)
		return
	}
	expected := highest + 1

	switch {
	case ev.Height < expected:
		// Stale or duplicate notification.
		slog.Debug("Dropping stale block event", "height", ev.Height, "expected", expected)
		return

	case ev.Height == expected:
		if !l.busy.CompareAndSwap(false, true) {
			// Still chewing on the previous block. Nothing advances, so
			// the height surfaces as a gap on the next event.
			slog.Warn("Busy, dropping block event", "height", ev.Height)
			return
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.busy.Store(false)
			l.processBlock(ctx, ev.Height)
		}()

	default:
		// Gap: heights were finalized while we weren't looking, or a
		// previous height never made it into the mirror.
		slog.Info("Gap in live feed, triggering reconciliation",
			"expected", expected, "got", ev.Height)
		if err := l.reconciler.Run(ctx); err != nil && !errors.Is(err, reconcile.ErrAlreadyRunning) {
			slog.Error("Gap reconciliation failed", "error", err)
		}
	}
}

func (l *Listener) processBlock(ctx context.Context, height int64) {
	block, err := l.processor.ProcessHeight(ctx, height)
	if err != nil {
		slog.Error("Failed to process live block", "height", height, "error", err)
		if l.failures != nil {
			if qErr := l.failures.EnqueueHeight(ctx, height, err.Error()); qErr != nil {
				slog.Warn("Failed to enqueue height for retry", "height", height, "error", qErr)
			}
		}
		return
	}
	metrics.MirrorHeight.Set(float64(block.Height))

	date := domain.DateOfTimestamp(block.Timestamp)
	if err := l.agg.AggregateDay(ctx, date); err != nil {
		slog.Error("Failed to aggregate day for live block",
			"height", height, "date", date, "error", err)
	}
}
