// Package aggregator maintains the day-granularity rollups derived from the
// blocks table.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/indexing/metrics"
	"github.com/ecash-community/metachronik/internal/infra/storage"
	"github.com/ecash-community/metachronik/internal/pricefeed"
)

// Aggregator recomputes day rollups. The price snapshot is attached only
// when a current-day row is first created; recomputations never touch it.
type Aggregator struct {
	days  storage.DayRepository
	price pricefeed.Source

	// now is swapped out in tests.
	now func() string
}

// New creates an aggregator. price may be nil, in which case new rows are
// created without a snapshot.
func New(days storage.DayRepository, price pricefeed.Source) *Aggregator {
	return &Aggregator{
		days:  days,
		price: price,
		now:   domain.Today,
	}
}

// AggregateDay recomputes the rollup for one date (YYYY-MM-DD).
func (a *Aggregator) AggregateDay(ctx context.Context, date string) error {
	exists, err := a.days.Exists(ctx, date)
	if err != nil {
		return fmt.Errorf("check day %s: %w", date, err)
	}

	var price *decimal.Decimal
	if !exists && date >= a.now() && a.price != nil {
		// A spot price only makes sense for a day that is still current;
		// past days get NULL since their price cannot be reconstructed.
		current, err := a.price.CurrentPrice(ctx)
		if err != nil {
			slog.Warn("Price fetch failed, creating day without snapshot",
				"date", date, "error", err)
		} else {
			price = &current
			slog.Info("Fetched price snapshot for new day",
				"date", date, "price_usd", current)
		}
	}

	if err := a.days.UpsertFromBlocks(ctx, date, price); err != nil {
		return err
	}
	metrics.DaysAggregated.Inc()
	return nil
}

// AggregateDates recomputes every date in the set, ascending. Dates are
// deduplicated so callers can pass one date per processed block.
func (a *Aggregator) AggregateDates(ctx context.Context, dates []string) error {
	unique := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		unique[date] = struct{}{}
	}
	ordered := make([]string, 0, len(unique))
	for date := range unique {
		ordered = append(ordered, date)
	}
	sort.Strings(ordered)

	for _, date := range ordered {
		if err := a.AggregateDay(ctx, date); err != nil {
			return err
		}
	}
	return nil
}
