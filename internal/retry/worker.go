// Package retry drains the failed-height queue through the same
// fetch-extract-persist path the live feed uses.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/indexing/metrics"
	infraredis "github.com/ecash-community/metachronik/internal/infra/redis"
	"github.com/ecash-community/metachronik/internal/ingest"
)

// Queue is the failed-height queue the worker drains. Satisfied by
// *redis.RetryQueue.
type Queue interface {
	Next(ctx context.Context) (*infraredis.FailedHeight, bool, error)
	Ack(ctx context.Context, height int64) error
	Requeue(ctx context.Context, entry *infraredis.FailedHeight, reason string) (bool, error)
	Depth(ctx context.Context) (int64, error)
}

// Aggregator recomputes the rollup for the date of a recovered block.
type Aggregator interface {
	AggregateDay(ctx context.Context, date string) error
}

const defaultInterval = time.Minute

// Worker periodically retries queued heights.
type Worker struct {
	queue     Queue
	processor ingest.Processor
	agg       Aggregator
	interval  time.Duration
}

// NewWorker creates a retry worker. interval <= 0 selects the default.
func NewWorker(queue Queue, processor ingest.Processor, agg Aggregator, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{queue: queue, processor: processor, agg: agg, interval: interval}
}

// Run drains the queue on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	tried := make(map[int64]bool)
	for {
		if ctx.Err() != nil {
			return
		}

		entry, found, err := w.queue.Next(ctx)
		if err != nil {
			slog.Warn("Retry queue read failed", "error", err)
			return
		}
		if !found {
			break
		}
		if tried[entry.Height] {
			// The queue handed the same height back within one pass;
			// leave it for a later tick instead of retrying back-to-back.
			break
		}
		tried[entry.Height] = true

		w.retry(ctx, entry)
	}

	if depth, err := w.queue.Depth(ctx); err == nil {
		metrics.RetryQueueDepth.Set(float64(depth))
	}
}

func (w *Worker) retry(ctx context.Context, entry *infraredis.FailedHeight) {
	block, err := w.processor.ProcessHeight(ctx, entry.Height)
	if err != nil {
		kept, qErr := w.queue.Requeue(ctx, entry, err.Error())
		if qErr != nil {
			slog.Warn("Failed to requeue height", "height", entry.Height, "error", qErr)
			return
		}
		if kept {
			slog.Warn("Retry failed, height requeued",
				"height", entry.Height, "attempts", entry.Attempts, "error", err)
		} else {
			slog.Error("Retry attempts exhausted, dropping height",
				"height", entry.Height, "attempts", entry.Attempts, "error", err)
		}
		return
	}

	if err := w.queue.Ack(ctx, entry.Height); err != nil {
		slog.Warn("Failed to ack retried height", "height", entry.Height, "error", err)
	}
	slog.Info("Recovered failed height", "height", entry.Height, "attempts", entry.Attempts)

	if w.agg != nil {
		date := domain.DateOfTimestamp(block.Timestamp)
		if err := w.agg.AggregateDay(ctx, date); err != nil {
			slog.Warn("Failed to aggregate day for recovered height",
				"height", entry.Height, "date", date, "error", err)
		}
	}
}
