package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecash-community/metachronik/internal/core/domain"
)

// DayRepo implements storage.DayRepository using PostgreSQL.
type DayRepo struct {
	db *DB
}

// NewDayRepo creates a new PostgreSQL day repository.
func NewDayRepo(db *DB) *DayRepo {
	return &DayRepo{db: db}
}

type dayRow struct {
	// Scanned as time.Time: the column is a DATE and the driver hands
	// back midnight UTC.
	Date              time.Time `db:"date"`
	TotalBlocks       int       `db:"total_blocks"`
	TotalTransactions int64     `db:"total_transactions"`
	AvgBlockSize      float64   `db:"avg_block_size"`

	SumCoinbaseOutputSats int64 `db:"sum_coinbase_output_sats"`
	MinerRewardSats       int64 `db:"miner_reward_sats"`
	StakingRewardSats     int64 `db:"staking_reward_sats"`
	IFPRewardSats         int64 `db:"ifp_reward_sats"`

	TxCountALPStandard  int64 `db:"tx_count_alp_token_type_standard"`
	TxCountSLPFungible  int64 `db:"tx_count_slp_token_type_fungible"`
	TxCountSLPMintVault int64 `db:"tx_count_slp_token_type_mint_vault"`
	TxCountSLPNFT1Group int64 `db:"tx_count_slp_token_type_nft1_group"`
	TxCountSLPNFT1Child int64 `db:"tx_count_slp_token_type_nft1_child"`

	TxCountGenesisALPStandard  int64 `db:"tx_count_genesis_alp_token_type_standard"`
	TxCountGenesisSLPFungible  int64 `db:"tx_count_genesis_slp_token_type_fungible"`
	TxCountGenesisSLPMintVault int64 `db:"tx_count_genesis_slp_token_type_mint_vault"`
	TxCountGenesisSLPNFT1Group int64 `db:"tx_count_genesis_slp_token_type_nft1_group"`
	TxCountGenesisSLPNFT1Child int64 `db:"tx_count_genesis_slp_token_type_nft1_child"`

	CachetClaimCount        int64 `db:"cachet_claim_count"`
	CashtabFaucetClaimCount int64 `db:"cashtab_faucet_claim_count"`
	BinanceWithdrawalCount  int64 `db:"binance_withdrawal_count"`
	BinanceWithdrawalSats   int64 `db:"binance_withdrawal_sats"`

	AgoraVolumeSats      int64 `db:"agora_volume_sats"`
	AgoraVolumeXECXSats  int64 `db:"agora_volume_xecx_sats"`
	AgoraVolumeFirmaSats int64 `db:"agora_volume_firma_sats"`

	AppTxCount int64 `db:"app_txs_count"`

	PriceUSD *decimal.Decimal `db:"price_usd"`
}

func (r dayRow) toDomain() *domain.DayStats {
	return &domain.DayStats{
		Date:                       r.Date.UTC().Format(domain.DateLayout),
		TotalBlocks:                r.TotalBlocks,
		TotalTransactions:          r.TotalTransactions,
		AvgBlockSize:               r.AvgBlockSize,
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
		PriceUSD:                   r.PriceUSD,
	}
}

// Exists reports whether a rollup row exists for the date.
func (r *DayRepo) Exists(ctx context.Context, date string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM days WHERE date = $1)`, date)
	if err != nil {
		return false, fmt.Errorf("failed to check day %s: %w", date, err)
	}
	return exists, nil
}

// UpsertFromBlocks recomputes the date's rollup from the blocks table in a
// single statement. Every aggregate column is replaced on conflict;
// price_usd deliberately is not, so the snapshot taken at row creation
// survives later re-aggregations.
func (r *DayRepo) UpsertFromBlocks(ctx context.Context, date string, price *decimal.Decimal) error {
	query := `
		INSERT INTO days (
			date, total_blocks, total_transactions, avg_block_size,
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
			app_txs_count, price_usd
		)
		SELECT
			DATE(to_timestamp(timestamp) AT TIME ZONE 'UTC'),
			COUNT(*),
			SUM(tx_count),
			AVG(block_size),
			SUM(sum_coinbase_output_sats),
			SUM(miner_reward_sats),
			SUM(staking_reward_sats),
			SUM(ifp_reward_sats),
			SUM(tx_count_alp_token_type_standard),
			SUM(tx_count_slp_token_type_fungible),
			SUM(tx_count_slp_token_type_mint_vault),
			SUM(tx_count_slp_token_type_nft1_group),
			SUM(tx_count_slp_token_type_nft1_child),
			SUM(tx_count_genesis_alp_token_type_standard),
			SUM(tx_count_genesis_slp_token_type_fungible),
			SUM(tx_count_genesis_slp_token_type_mint_vault),
			SUM(tx_count_genesis_slp_token_type_nft1_group),
			SUM(tx_count_genesis_slp_token_type_nft1_child),
			SUM(cachet_claim_count),
			SUM(cashtab_faucet_claim_count),
			SUM(binance_withdrawal_count),
			SUM(binance_withdrawal_sats),
			SUM(agora_volume_sats),
			SUM(agora_volume_xecx_sats),
			SUM(agora_volume_firma_sats),
			SUM(app_txs_count),
			$2
		FROM blocks
		WHERE DATE(to_timestamp(timestamp) AT TIME ZONE 'UTC') = $1
		GROUP BY DATE(to_timestamp(timestamp) AT TIME ZONE 'UTC')
		ON CONFLICT (date) DO UPDATE SET
			total_blocks = EXCLUDED.total_blocks,
			total_transactions = EXCLUDED.total_transactions,
			avg_block_size = EXCLUDED.avg_block_size,
			sum_coinbase_output_sats = EXCLUDED.sum_coinbase_output_sats,
			miner_reward_sats = EXCLUDED.miner_reward_sats,
			staking_reward_sats = EXCLUDED.staking_reward_sats,
			ifp_reward_sats = EXCLUDED.ifp_reward_sats,
			tx_count_alp_token_type_standard = EXCLUDED.tx_count_alp_token_type_standard,
			tx_count_slp_token_type_fungible = EXCLUDED.tx_count_slp_token_type_fungible,
			tx_count_slp_token_type_mint_vault = EXCLUDED.tx_count_slp_token_type_mint_vault,
			tx_count_slp_token_type_nft1_group = EXCLUDED.tx_count_slp_token_type_nft1_group,
			tx_count_slp_token_type_nft1_child = EXCLUDED.tx_count_slp_token_type_nft1_child,
			tx_count_genesis_alp_token_type_standard = EXCLUDED.tx_count_genesis_alp_token_type_standard,
			tx_count_genesis_slp_token_type_fungible = EXCLUDED.tx_count_genesis_slp_token_type_fungible,
			tx_count_genesis_slp_token_type_mint_vault = EXCLUDED.tx_count_genesis_slp_token_type_mint_vault,
			tx_count_genesis_slp_token_type_nft1_group = EXCLUDED.tx_count_genesis_slp_token_type_nft1_group,
			tx_count_genesis_slp_token_type_nft1_child = EXCLUDED.tx_count_genesis_slp_token_type_nft1_child,
			cachet_claim_count = EXCLUDED.cachet_claim_count,
			cashtab_faucet_claim_count = EXCLUDED.cashtab_faucet_claim_count,
			binance_withdrawal_count = EXCLUDED.binance_withdrawal_count,
			binance_withdrawal_sats = EXCLUDED.binance_withdrawal_sats,
			agora_volume_sats = EXCLUDED.agora_volume_sats,
			agora_volume_xecx_sats = EXCLUDED.agora_volume_xecx_sats,
			agora_volume_firma_sats = EXCLUDED.agora_volume_firma_sats,
			app_txs_count = EXCLUDED.app_txs_count
	`

	var priceArg any
	if price != nil {
		priceArg = *price
	}
	if _, err := r.db.ExecContext(ctx, query, date, priceArg); err != nil {
		return fmt.Errorf("failed to upsert day %s: %w", date, err)
	}
	return nil
}

// GetByDate returns the stored rollup for a date, nil when absent.
func (r *DayRepo) GetByDate(ctx context.Context, date string) (*domain.DayStats, error) {
	var row dayRow
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM days WHERE date = $1`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day %s: %w", date, err)
	}
	return row.toDomain(), nil
}
