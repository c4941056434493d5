package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksProcessed tracks blocks turned into metric rows, by source
	// (live, reconcile, retry).
	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metachronik_blocks_processed_total",
			Help: "Total number of blocks processed into metric rows",
		},
		[]string{"source"},
	)

	// BlockProcessErrors tracks per-height processing failures by source.
	BlockProcessErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metachronik_block_process_errors_total",
			Help: "Total number of block processing failures",
		},
		[]string{"source"},
	)

	// UpstreamCallsTotal tracks calls against upstream services (chronik
	// endpoints plus the price provider), by logical method.
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metachronik_upstream_calls_total",
			Help: "Total number of upstream service calls",
		},
		[]string{"method"},
	)

	// UpstreamErrorsTotal tracks upstream call failures.
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metachronik_upstream_errors_total",
			Help: "Total number of upstream service call failures",
		},
		[]string{"method"},
	)

	// ChainTipHeight tracks the upstream chain tip.
	ChainTipHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metachronik_chain_tip_height",
			Help: "Latest chain tip height reported upstream",
		},
	)

	// MirrorHeight tracks the highest height stored in the blocks table.
	MirrorHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metachronik_mirror_height",
			Help: "Highest block height stored in the metrics mirror",
		},
	)

	// DaysAggregated counts day rollup recomputations.
	DaysAggregated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metachronik_days_aggregated_total",
			Help: "Total number of day rollup recomputations",
		},
	)

	// ReconcileRuns counts reconciliation runs by outcome.
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metachronik_reconcile_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"outcome"},
	)

	// RetryQueueDepth tracks heights waiting in the retry queue.
	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metachronik_retry_queue_depth",
			Help: "Number of block heights waiting for retry",
		},
	)

	// DBConnectionPoolUsage tracks database pool utilization percent.
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metachronik_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
