package health

import (
	"context"
	"sync"
	"time"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/infra/storage"
)

// Pinger reports database reachability. Satisfied by *postgres.DB.
type Pinger interface {
	Health(ctx context.Context) error
}

// QueueDepth reports the retry-queue backlog. May be nil when Redis is not
// configured.
type QueueDepth interface {
	Depth(ctx context.Context) (int64, error)
}

// ReconcileState reports whether a reconciliation run is in flight.
type ReconcileState interface {
	Running() bool
}

// Monitor aggregates health status from the pipeline's components.
type Monitor struct {
	client    chronik.Client
	blocks    storage.BlockRepository
	db        Pinger
	queue     QueueDepth
	reconcile ReconcileState

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a health monitor. db, queue and reconcile may be nil.
func NewMonitor(
	client chronik.Client,
	blocks storage.BlockRepository,
	db Pinger,
	queue QueueDepth,
	reconcile ReconcileState,
) *Monitor {
	return &Monitor{
		client:    client,
		blocks:    blocks,
		db:        db,
		queue:     queue,
		reconcile: reconcile,
	}
}

// CheckHealth builds a health report. Results are cached for a few seconds
// so the endpoint cannot be used to hammer the upstream.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && !m.lastCheck.IsZero() {
		return m.lastReport
	}

	report := Report{Status: StatusHealthy, DatabaseOK: true, UpstreamOK: true}

	if info, err := m.client.BlockchainInfo(ctx); err != nil {
		report.UpstreamOK = false
	} else {
		report.ChainTip = info.TipHeight
	}

	if height, err := m.blocks.HighestHeight(ctx); err != nil {
		report.DatabaseOK = false
	} else {
		report.MirrorHeight = height
	}
	if m.db != nil && m.db.Health(ctx) != nil {
		report.DatabaseOK = false
	}

	if report.UpstreamOK && report.DatabaseOK {
		report.BlockLag = report.ChainTip - report.MirrorHeight
		if report.BlockLag < 0 {
			report.BlockLag = 0
		}
	}

	if m.queue != nil {
		if depth, err := m.queue.Depth(ctx); err == nil {
			report.RetryQueue = depth
		}
	}
	if m.reconcile != nil {
		report.Reconciling = m.reconcile.Running()
	}

	switch {
	case !report.DatabaseOK:
		report.Status = StatusCritical
	case !report.UpstreamOK || report.BlockLag > 10 || report.RetryQueue > 0:
		report.Status = StatusDegraded
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
