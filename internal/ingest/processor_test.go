package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/infra/storage/memory"
)

// MockClient serves canned headers and transaction lists and records which
// endpoints were hit.
type MockClient struct {
	Infos map[int64]*chronik.BlockInfo
	Txs   map[int64][]chronik.Tx

	TxCalls int
}

func (m *MockClient) BlockchainInfo(ctx context.Context) (*chronik.BlockchainInfo, error) {
	return nil, errors.New("not used")
}

func (m *MockClient) BlockInfo(ctx context.Context, height int64) (*chronik.BlockInfo, error) {
	info, ok := m.Infos[height]
	if !ok {
		return nil, chronik.ErrNotFound
	}
	return info, nil
}

func (m *MockClient) BlockTxs(ctx context.Context, height int64, page, pageSize int) (*chronik.TxPage, error) {
	m.TxCalls++
	return &chronik.TxPage{Txs: m.Txs[height]}, nil
}

func (m *MockClient) Subscribe(ctx context.Context) (chronik.Subscription, error) {
	return nil, errors.New("not used")
}

func TestProcessHeight_HeaderOnlyBlock(t *testing.T) {
	client := &MockClient{
		Infos: map[int64]*chronik.BlockInfo{
			500000: {
				Height: 500000, Hash: "aa", Timestamp: 1600000000,
				NumTxs: 1, SumCoinbaseOutputSats: 625000000,
			},
		},
	}
	store := memory.NewMemoryStorage()
	blocks := memory.NewBlockRepo(store)
	proc := NewBlockProcessor(client, blocks, "reconcile")

	block, err := proc.ProcessHeight(context.Background(), 500000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.TxCalls != 0 {
		t.Errorf("expected no tx fetch for coinbase-only block, got %d calls", client.TxCalls)
	}
	if block.MinerRewardSats != 625000000 {
		t.Errorf("expected full reward to miner, got %d", block.MinerRewardSats)
	}

	stored, err := blocks.GetByHeight(context.Background(), 500000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.Hash != "aa" {
		t.Errorf("expected block persisted, got %+v", stored)
	}
}

func TestProcessHeight_FetchesTxsForModernBlock(t *testing.T) {
	client := &MockClient{
		Infos: map[int64]*chronik.BlockInfo{
			800000: {Height: 800000, Hash: "bb", Timestamp: 1700000000, NumTxs: 2},
		},
		Txs: map[int64][]chronik.Tx{
			800000: {
				{TxID: "cb", IsCoinbase: true, Outputs: []chronik.TxOutput{{Sats: 312500000, OutputScript: "76a914ff88ac"}}},
				{TxID: "t1"},
			},
		},
	}
	store := memory.NewMemoryStorage()
	blocks := memory.NewBlockRepo(store)
	proc := NewBlockProcessor(client, blocks, "live")

	block, err := proc.ProcessHeight(context.Background(), 800000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.TxCalls != 1 {
		t.Errorf("expected 1 tx fetch, got %d", client.TxCalls)
	}
	if block.SumCoinbaseOutputSats != 312500000 {
		t.Errorf("expected coinbase sum from txs, got %d", block.SumCoinbaseOutputSats)
	}
	if block.TxCount != 2 {
		t.Errorf("expected tx count 2, got %d", block.TxCount)
	}
}

func TestProcessHeight_ReprocessKeepsExistingRow(t *testing.T) {
	client := &MockClient{
		Infos: map[int64]*chronik.BlockInfo{
			500000: {
				Height: 500000, Hash: "aa", Timestamp: 1600000000,
				NumTxs: 1, SumCoinbaseOutputSats: 625000000,
			},
		},
	}
	store := memory.NewMemoryStorage()
	blocks := memory.NewBlockRepo(store)
	proc := NewBlockProcessor(client, blocks, "reconcile")

	if _, err := proc.ProcessHeight(context.Background(), 500000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same height again with changed upstream data; the stored row is
	// immutable so the original values survive.
	client.Infos[500000].SumCoinbaseOutputSats = 1
	if _, err := proc.ProcessHeight(context.Background(), 500000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := blocks.GetByHeight(context.Background(), 500000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.SumCoinbaseOutputSats != 625000000 {
		t.Errorf("expected original row kept on reprocess, got %d", stored.SumCoinbaseOutputSats)
	}
}

func TestProcessHeight_HeaderFetchError(t *testing.T) {
	client := &MockClient{Infos: map[int64]*chronik.BlockInfo{}}
	store := memory.NewMemoryStorage()
	proc := NewBlockProcessor(client, memory.NewBlockRepo(store), "retry")

	_, err := proc.ProcessHeight(context.Background(), 12345)
	if !errors.Is(err, chronik.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
