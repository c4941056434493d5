// Package storage defines the persistence boundary of the pipeline. The
// engine layers depend on these interfaces only; postgres carries the one
// real implementation.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ecash-community/metachronik/internal/core/domain"
)

// BlockRepository handles per-block metric rows.
type BlockRepository interface {
	// Upsert writes the metrics row for a height. Rows are immutable:
	// writing a height that already exists is a silent no-op, which makes
	// re-processing a height safe.
	Upsert(ctx context.Context, block *domain.BlockMetrics) error

	// HighestHeight returns the highest stored height, 0 when the table
	// is empty.
	HighestHeight(ctx context.Context) (int64, error)

	// LowestHeight returns the lowest stored height, 0 when the table is
	// empty.
	LowestHeight(ctx context.Context) (int64, error)

	// ExistsAtHeight reports whether a row exists for the height.
	ExistsAtHeight(ctx context.Context, height int64) (bool, error)

	// GetByHeight returns the stored row for a height, nil when absent.
	GetByHeight(ctx context.Context, height int64) (*domain.BlockMetrics, error)

	// MissingHeights returns the heights in [from, to] with no stored
	// row, ascending.
	MissingHeights(ctx context.Context, from, to int64) ([]int64, error)
}

// DayRepository handles day-granularity rollup rows.
type DayRepository interface {
	// Exists reports whether a rollup row exists for the date
	// (YYYY-MM-DD).
	Exists(ctx context.Context, date string) (bool, error)

	// UpsertFromBlocks recomputes the rollup for date from the blocks
	// table and writes it. On conflict every aggregate column is
	// replaced but price_usd keeps its stored value; price is only
	// written when the row is first created. A nil price inserts NULL.
	UpsertFromBlocks(ctx context.Context, date string, price *decimal.Decimal) error

	// GetByDate returns the stored rollup for a date, nil when absent.
	GetByDate(ctx context.Context, date string) (*domain.DayStats, error)
}
