package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecash-community/metachronik/internal/core/domain"
)

// BlockRepo implements storage.BlockRepository using PostgreSQL.
type BlockRepo struct {
	db *DB
}

// NewBlockRepo creates a new PostgreSQL block repository.
func NewBlockRepo(db *DB) *BlockRepo {
	return &BlockRepo{db: db}
}

type blockRow struct {
	Height    int64  `db:"height"`
	Hash      string `db:"hash"`
	Timestamp int64  `db:"timestamp"`
	TxCount   int    `db:"tx_count"`
	BlockSize int64  `db:"block_size"`

	SumCoinbaseOutputSats int64 `db:"sum_coinbase_output_sats"`
	MinerRewardSats       int64 `db:"miner_reward_sats"`
	StakingRewardSats     int64 `db:"staking_reward_sats"`
	IFPRewardSats         int64 `db:"ifp_reward_sats"`

	TxCountALPStandard  int `db:"tx_count_alp_token_type_standard"`
	TxCountSLPFungible  int `db:"tx_count_slp_token_type_fungible"`
	TxCountSLPMintVault int `db:"tx_count_slp_token_type_mint_vault"`
	TxCountSLPNFT1Group int `db:"tx_count_slp_token_type_nft1_group"`
	TxCountSLPNFT1Child int `db:"tx_count_slp_token_type_nft1_child"`

	TxCountGenesisALPStandard  int `db:"tx_count_genesis_alp_token_type_standard"`
	TxCountGenesisSLPFungible  int `db:"tx_count_genesis_slp_token_type_fungible"`
	TxCountGenesisSLPMintVault int `db:"tx_count_genesis_slp_token_type_mint_vault"`
	TxCountGenesisSLPNFT1Group int `db:"tx_count_genesis_slp_token_type_nft1_group"`
	TxCountGenesisSLPNFT1Child int `db:"tx_count_genesis_slp_token_type_nft1_child"`

	CachetClaimCount        int   `db:"cachet_claim_count"`
	CashtabFaucetClaimCount int   `db:"cashtab_faucet_claim_count"`
	BinanceWithdrawalCount  int   `db:"binance_withdrawal_count"`
	BinanceWithdrawalSats   int64 `db:"binance_withdrawal_sats"`

	AgoraVolumeSats      int64 `db:"agora_volume_sats"`
	AgoraVolumeXECXSats  int64 `db:"agora_volume_xecx_sats"`
	AgoraVolumeFirmaSats int64 `db:"agora_volume_firma_sats"`

	AppTxCount int `db:"app_txs_count"`
}

func toBlockRow(b *domain.BlockMetrics) blockRow {
	return blockRow{
		Height:                     b.Height,
		Hash:                       b.Hash,
		Timestamp:                  b.Timestamp,
		TxCount:                    b.TxCount,
		BlockSize:                  b.BlockSize,
		SumCoinbaseOutputSats:      b.SumCoinbaseOutputSats,
		MinerRewardSats:            b.MinerRewardSats,
		StakingRewardSats:          b.StakingRewardSats,
		IFPRewardSats:              b.IFPRewardSats,
		TxCountALPStandard:         b.TxCountALPStandard,
		TxCountSLPFungible:         b.TxCountSLPFungible,
		TxCountSLPMintVault:        b.TxCountSLPMintVault,
		TxCountSLPNFT1Group:        b.TxCountSLPNFT1Group,
		TxCountSLPNFT1Child:        b.TxCountSLPNFT1Child,
		TxCountGenesisALPStandard:  b.TxCountGenesisALPStandard,
		TxCountGenesisSLPFungible:  b.TxCountGenesisSLPFungible,
		TxCountGenesisSLPMintVault: b.TxCountGenesisSLPMintVault,
		TxCountGenesisSLPNFT1Group: b.TxCountGenesisSLPNFT1Group,
		TxCountGenesisSLPNFT1Child: b.TxCountGenesisSLPNFT1Child,
		CachetClaimCount:           b.CachetClaimCount,
		CashtabFaucetClaimCount:    b.CashtabFaucetClaimCount,
		BinanceWithdrawalCount:     b.BinanceWithdrawalCount,
		BinanceWithdrawalSats:      b.BinanceWithdrawalSats,
		AgoraVolumeSats:            b.AgoraVolumeSats,
		AgoraVolumeXECXSats:        b.AgoraVolumeXECXSats,
		AgoraVolumeFirmaSats:       b.AgoraVolumeFirmaSats,
		AppTxCount:                 b.AppTxCount,
	}
}

func (r blockRow) toDomain() *domain.BlockMetrics {
	return &domain.BlockMetrics{
		Height:                     r.Height,
		Hash:                       r.Hash,
		Timestamp:                  r.Timestamp,
		TxCount:                    r.TxCount,
		BlockSize:                  r.BlockSize,
		SumCoinbaseOutputSats:      r.SumCoinbaseOutputSats,
		MinerRewardSats:            r.MinerRewardSats,
		StakingRewardSats:          r.StakingRewardSats,
		IFPRewardSats:              r.IFPRewardSats,
		TxCountALPStandard:         r.TxCountALPStandard,
		TxCountSLPFungible:         r.TxCountSLPFungible,
		TxCountSLPMintVault:        r.TxCountSLPMintVault,
		TxCountSLPNFT1Group:        r.TxCountSLPNFT1Group,
		TxCountSLPNFT1Child:        r.TxCountSLPNFT1Child,
		TxCountGenesisALPStandard:  r.TxCountGenesisALPStandard,
		TxCountGenesisSLPFungible:  r.TxCountGenesisSLPFungible,
		TxCountGenesisSLPMintVault: r.TxCountGenesisSLPMintVault,
		TxCountGenesisSLPNFT1Group: r.TxCountGenesisSLPNFT1Group,
		TxCountGenesisSLPNFT1Child: r.TxCountGenesisSLPNFT1Child,
		CachetClaimCount:           r.CachetClaimCount,
		CashtabFaucetClaimCount:    r.CashtabFaucetClaimCount,
		BinanceWithdrawalCount:     r.BinanceWithdrawalCount,
		BinanceWithdrawalSats:      r.BinanceWithdrawalSats,
		AgoraVolumeSats:            r.AgoraVolumeSats,
		AgoraVolumeXECXSats:        r.AgoraVolumeXECXSats,
		AgoraVolumeFirmaSats:       r.AgoraVolumeFirmaSats,
		AppTxCount:                 r.AppTxCount,
	}
}

// Upsert writes a block metrics row. An existing row at the same height is
// left untouched so re-processing a height never churns data.
func (r *BlockRepo) Upsert(ctx context.Context, block *domain.BlockMetrics) error {
	query := `
		INSERT INTO blocks (
			height, hash, timestamp, tx_count, block_size,
			sum_coinbase_output_sats, miner_reward_sats, staking_reward_sats, ifp_reward_sats,
			tx_count_alp_token_type_standard, tx_count_slp_token_type_fungible,
			tx_count_slp_token_type_mint_vault, tx_count_slp_token_type_nft1_group,
			tx_count_slp_token_type_nft1_child,
			tx_count_genesis_alp_token_type_standard, tx_count_genesis_slp_token_type_fungible,
			tx_count_genesis_slp_token_type_mint_vault, tx_count_genesis_slp_token_type_nft1_group,
			tx_count_genesis_slp_token_type_nft1_child,
			cachet_claim_count, cashtab_faucet_claim_count,
			binance_withdrawal_count, binance_withdrawal_sats,
			agora_volume_sats, agora_volume_xecx_sats, agora_volume_firma_sats,
			app_txs_count
		) VALUES (
			:height, :hash, :timestamp, :tx_count, :block_size,
			:sum_coinbase_output_sats, :miner_reward_sats, :staking_reward_sats, :ifp_reward_sats,
			:tx_count_alp_token_type_standard, :tx_count_slp_token_type_fungible,
			:tx_count_slp_token_type_mint_vault, :tx_count_slp_token_type_nft1_group,
			:tx_count_slp_token_type_nft1_child,
			:tx_count_genesis_alp_token_type_standard, :tx_count_genesis_slp_token_type_fungible,
			:tx_count_genesis_slp_token_type_mint_vault, :tx_count_genesis_slp_token_type_nft1_group,
			:tx_count_genesis_slp_token_type_nft1_child,
			:cachet_claim_count, :cashtab_faucet_claim_count,
			:binance_withdrawal_count, :binance_withdrawal_sats,
			:agora_volume_sats, :agora_volume_xecx_sats, :agora_volume_firma_sats,
			:app_txs_count
		)
		ON CONFLICT (height) DO NOTHING
	`

	if _, err := r.db.NamedExecContext(ctx, query, toBlockRow(block)); err != nil {
		return fmt.Errorf("failed to upsert block %d: %w", block.Height, err)
	}
	return nil
}

// HighestHeight returns the highest stored height, 0 on an empty table.
func (r *BlockRepo) HighestHeight(ctx context.Context) (int64, error) {
	var height int64
	err := r.db.GetContext(ctx, &height, `SELECT COALESCE(MAX(height), 0) FROM blocks`)
	if err != nil {
		return 0, fmt.Errorf("failed to get highest height: %w", err)
	}
	return height, nil
}

// LowestHeight returns the lowest stored height, 0 on an empty table.
func (r *BlockRepo) LowestHeight(ctx context.Context) (int64, error) {
	var height int64
	err := r.db.GetContext(ctx, &height, `SELECT COALESCE(MIN(height), 0) FROM blocks`)
	if err != nil {
		return 0, fmt.Errorf("failed to get lowest height: %w", err)
	}
	return height, nil
}

// ExistsAtHeight reports whether a row exists for the height.
func (r *BlockRepo) ExistsAtHeight(ctx context.Context, height int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM blocks WHERE height = $1)`, height)
	if err != nil {
		return false, fmt.Errorf("failed to check block %d: %w", height, err)
	}
	return exists, nil
}

// GetByHeight returns the stored row for a height, nil when absent.
func (r *BlockRepo) GetByHeight(ctx context.Context, height int64) (*domain.BlockMetrics, error) {
	var row blockRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM blocks WHERE height = $1`, height)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", height, err)
	}
	return row.toDomain(), nil
}

// MissingHeights returns the heights in [from, to] with no stored row.
func (r *BlockRepo) MissingHeights(ctx context.Context, from, to int64) ([]int64, error) {
	query := `
		SELECT h FROM generate_series($1::bigint, $2::bigint) AS h
		WHERE h NOT IN (SELECT height FROM blocks WHERE height BETWEEN $1 AND $2)
		ORDER BY h
	`
	var heights []int64
	if err := r.db.SelectContext(ctx, &heights, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to find missing heights %d-%d: %w", from, to, err)
	}
	return heights, nil
}
