package health

import (
	"context"
	"errors"
	"testing"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
	"github.com/ecash-community/metachronik/internal/infra/storage/memory"
)

// MockClient serves a fixed tip or an error.
type MockClient struct {
	Tip int64
	Err error
}

func (m *MockClient) BlockchainInfo(ctx context.Context) (*chronik.BlockchainInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &chronik.BlockchainInfo{TipHeight: m.Tip}, nil
}

func (m *MockClient) BlockInfo(ctx context.Context, height int64) (*chronik.BlockInfo, error) {
	return nil, errors.New("not used")
}

func (m *MockClient) BlockTxs(ctx context.Context, height int64, page, pageSize int) (*chronik.TxPage, error) {
	return nil, errors.New("not used")
}

func (m *MockClient) Subscribe(ctx context.Context) (chronik.Subscription, error) {
	return nil, errors.New("not used")
}

// MockQueue serves a fixed depth.
type MockQueue struct {
	Size int64
}

func (m *MockQueue) Depth(ctx context.Context) (int64, error) { return m.Size, nil }

func seedBlocks(t *testing.T, store *memory.MemoryStorage, upTo int64) {
	t.Helper()
	blocks := memory.NewBlockRepo(store)
	for h := int64(1); h <= upTo; h++ {
		_ = blocks.Upsert(context.Background(), &domain.BlockMetrics{
			Height: h, Hash: "h", Timestamp: 1714557600,
		})
	}
}

func TestCheckHealth_Healthy(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedBlocks(t, store, 100)

	monitor := NewMonitor(&MockClient{Tip: 100}, memory.NewBlockRepo(store), nil, nil, nil)
	report := monitor.CheckHealth(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.BlockLag != 0 {
		t.Errorf("expected zero lag, got %d", report.BlockLag)
	}
}

func TestCheckHealth_SmallLagStaysHealthy(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedBlocks(t, store, 100)

	monitor := NewMonitor(&MockClient{Tip: 110}, memory.NewBlockRepo(store), nil, nil, nil)
	report := monitor.CheckHealth(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("expected healthy at 10 block lag, got %s", report.Status)
	}
}

func TestCheckHealth_LagDegrades(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedBlocks(t, store, 100)

	monitor := NewMonitor(&MockClient{Tip: 150}, memory.NewBlockRepo(store), nil, nil, nil)
	report := monitor.CheckHealth(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("expected degraded at 50 block lag, got %s", report.Status)
	}
	if report.BlockLag != 50 {
		t.Errorf("expected lag 50, got %d", report.BlockLag)
	}
}

func TestCheckHealth_UpstreamDownDegrades(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedBlocks(t, store, 100)

	monitor := NewMonitor(&MockClient{Err: errors.New("timeout")}, memory.NewBlockRepo(store), nil, nil, nil)
	report := monitor.CheckHealth(context.Background())

	if report.UpstreamOK {
		t.Error("expected upstream not ok")
	}
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
}

func TestCheckHealth_RetryBacklogDegrades(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedBlocks(t, store, 100)

	monitor := NewMonitor(&MockClient{Tip: 100}, memory.NewBlockRepo(store), nil, &MockQueue{Size: 3}, nil)
	report := monitor.CheckHealth(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("expected degraded with retry backlog, got %s", report.Status)
	}
	if report.RetryQueue != 3 {
		t.Errorf("expected queue depth 3, got %d", report.RetryQueue)
	}
}
