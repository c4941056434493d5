// Package memory is an in-memory implementation of the storage interfaces.
// It backs tests and lets the pipeline run without a database configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ecash-community/metachronik/internal/core/domain"
)

// MemoryStorage holds block and day rows behind one lock.
type MemoryStorage struct {
	mu     sync.RWMutex
	blocks map[int64]*domain.BlockMetrics
	days   map[string]*domain.DayStats
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blocks: make(map[int64]*domain.BlockMetrics),
		days:   make(map[string]*domain.DayStats),
	}
}

// -----------------------------------------------------------------------------
// Block Repository
// -----------------------------------------------------------------------------

type BlockRepo struct {
	store *MemoryStorage
}

func NewBlockRepo(store *MemoryStorage) *BlockRepo {
	return &BlockRepo{store: store}
}

func (r *BlockRepo) Upsert(ctx context.Context, block *domain.BlockMetrics) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.blocks[block.Height]; ok {
		return nil
	}
	copied := *block
	r.store.blocks[block.Height] = &copied
	return nil
}

func (r *BlockRepo) HighestHeight(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var highest int64
	for height := range r.store.blocks {
		if height > highest {
			highest = height
		}
	}
	return highest, nil
}

func (r *BlockRepo) LowestHeight(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var lowest int64
	for height := range r.store.blocks {
		if lowest == 0 || height < lowest {
			lowest = height
		}
	}
	return lowest, nil
}

func (r *BlockRepo) ExistsAtHeight(ctx context.Context, height int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.blocks[height]
	return ok, nil
}

func (r *BlockRepo) GetByHeight(ctx context.Context, height int64) (*domain.BlockMetrics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	block, ok := r.store.blocks[height]
	if !ok {
		return nil, nil
	}
	copied := *block
	return &copied, nil
}

func (r *BlockRepo) MissingHeights(ctx context.Context, from, to int64) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var missing []int64
	for h := from; h <= to; h++ {
		if _, ok := r.store.blocks[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing, nil
}

// -----------------------------------------------------------------------------
// Day Repository
// -----------------------------------------------------------------------------

type DayRepo struct {
	store *MemoryStorage
}

func NewDayRepo(store *MemoryStorage) *DayRepo {
	return &DayRepo{store: store}
}

func (r *DayRepo) Exists(ctx context.Context, date string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.days[date]
	return ok, nil
}

// UpsertFromBlocks mirrors the SQL rollup: aggregates are recomputed from
// the block rows, price_usd is only set on first creation.
func (r *DayRepo) UpsertFromBlocks(ctx context.Context, date string, price *decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var heights []int64
	for height, block := range r.store.blocks {
		if domain.DateOfTimestamp(block.Timestamp) == date {
			heights = append(heights, height)
		}
	}
	if len(heights) == 0 {
		return nil
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	day := &domain.DayStats{Date: date}
	var sizeSum int64
	for _, height := range heights {
		b := r.store.blocks[height]
		day.TotalBlocks++
		day.TotalTransactions += int64(b.TxCount)
		sizeSum += b.BlockSize
		day.SumCoinbaseOutputSats += b.SumCoinbaseOutputSats
		day.MinerRewardSats += b.MinerRewardSats
		day.StakingRewardSats += b.StakingRewardSats
		day.IFPRewardSats += b.IFPRewardSats
		day.TxCountALPStandard += int64(b.TxCountALPStandard)
		day.TxCountSLPFungible += int64(b.TxCountSLPFungible)
		day.TxCountSLPMintVault += int64(b.TxCountSLPMintVault)
		day.TxCountSLPNFT1Group += int64(b.TxCountSLPNFT1Group)
		day.TxCountSLPNFT1Child += int64(b.TxCountSLPNFT1Child)
		day.TxCountGenesisALPStandard += int64(b.TxCountGenesisALPStandard)
		day.TxCountGenesisSLPFungible += int64(b.TxCountGenesisSLPFungible)
		day.TxCountGenesisSLPMintVault += int64(b.TxCountGenesisSLPMintVault)
		day.TxCountGenesisSLPNFT1Group += int64(b.TxCountGenesisSLPNFT1Group)
		day.TxCountGenesisSLPNFT1Child += int64(b.TxCountGenesisSLPNFT1Child)
		day.CachetClaimCount += int64(b.CachetClaimCount)
		day.CashtabFaucetClaimCount += int64(b.CashtabFaucetClaimCount)
		day.BinanceWithdrawalCount += int64(b.BinanceWithdrawalCount)
		day.BinanceWithdrawalSats += b.BinanceWithdrawalSats
		day.AgoraVolumeSats += b.AgoraVolumeSats
		day.AgoraVolumeXECXSats += b.AgoraVolumeXECXSats
		day.AgoraVolumeFirmaSats += b.AgoraVolumeFirmaSats
		day.AppTxCount += int64(b.AppTxCount)
	}
	day.AvgBlockSize = float64(sizeSum) / float64(day.TotalBlocks)

	if existing, ok := r.store.days[date]; ok {
		day.PriceUSD = existing.PriceUSD
	} else if price != nil {
		copied := *price
		day.PriceUSD = &copied
	}
	r.store.days[date] = day
	return nil
}

func (r *DayRepo) GetByDate(ctx context.Context, date string) (*domain.DayStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	day, ok := r.store.days[date]
	if !ok {
		return nil, nil
	}
	copied := *day
	return &copied, nil
}
