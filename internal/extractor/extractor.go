// Package extractor turns a block header plus its transaction list into the
// flat per-block metrics record. Extraction is pure: no I/O, no clock, so
// the same inputs always produce the same record regardless of when a block
// is processed.
package extractor

import (
	"errors"
	"fmt"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
)

var (
	// ErrInvalidHeader is returned when the header summary is missing a
	// required field.
	ErrInvalidHeader = errors.New("extractor: invalid block header")

	// ErrNoCoinbase is returned when the transaction list does not start
	// with a coinbase transaction.
	ErrNoCoinbase = errors.New("extractor: no coinbase transaction")
)

// NeedsTxData reports whether the block's transaction list is required to
// extract its metrics. Pre-modern blocks with exactly one transaction are
// coinbase-only and predate every counter's activation, so the header alone
// suffices.
func NeedsTxData(info *chronik.BlockInfo) bool {
	return info.Height >= domain.FirstModernHeight || info.NumTxs != 1
}

// validateHeader checks the fields Extract depends on.
func validateHeader(info *chronik.BlockInfo) error {
	switch {
	case info == nil:
		return fmt.Errorf("%w: nil header", ErrInvalidHeader)
	case info.Height < 0:
		return fmt.Errorf("%w: negative height %d", ErrInvalidHeader, info.Height)
	case info.Hash == "":
		return fmt.Errorf("%w: empty hash at height %d", ErrInvalidHeader, info.Height)
	case info.Timestamp <= 0:
		return fmt.Errorf("%w: timestamp %d at height %d", ErrInvalidHeader, info.Timestamp, info.Height)
	case info.NumTxs <= 0:
		return fmt.Errorf("%w: tx count %d at height %d", ErrInvalidHeader, info.NumTxs, info.Height)
	}
	return nil
}

// Extract computes the metrics record for one block. txs is the block's
// complete ordered transaction list, coinbase first; it may be nil only when
// NeedsTxData(info) is false, in which case a coinbase is synthesized from
// the header's output sum.
func Extract(info *chronik.BlockInfo, txs []chronik.Tx) (*domain.BlockMetrics, error) {
	if err := validateHeader(info); err != nil {
		return nil, err
	}

	metrics := &domain.BlockMetrics{
		Height:    info.Height,
		Hash:      info.Hash,
		Timestamp: info.Timestamp,
		TxCount:   info.NumTxs,
		BlockSize: info.BlockSize,
	}

	if !NeedsTxData(info) {
		// Coinbase-only block: the whole reward is the miner's, every
		// counter predates these heights.
		metrics.SumCoinbaseOutputSats = info.SumCoinbaseOutputSats
		metrics.MinerRewardSats = info.SumCoinbaseOutputSats
		return metrics, nil
	}

	if len(txs) == 0 || !txs[0].IsCoinbase {
		return nil, fmt.Errorf("%w: height %d", ErrNoCoinbase, info.Height)
	}

	outputs := make([]coinbaseOutput, len(txs[0].Outputs))
	for i, out := range txs[0].Outputs {
		outputs[i] = coinbaseOutput{Sats: out.Sats, Script: out.OutputScript}
	}
	split := splitCoinbase(info.Height, outputs)
	metrics.SumCoinbaseOutputSats = split.Total
	metrics.MinerRewardSats = split.Miner
	metrics.StakingRewardSats = split.Staking
	metrics.IFPRewardSats = split.IFP

	metrics.CachetClaimCount = countCachetClaims(txs)
	metrics.CashtabFaucetClaimCount = countFaucetClaims(txs)
	metrics.BinanceWithdrawalCount, metrics.BinanceWithdrawalSats = countBinanceWithdrawals(txs)

	metrics.AgoraVolumeSats, metrics.AgoraVolumeXECXSats, metrics.AgoraVolumeFirmaSats = sumAgoraVolumes(txs)

	tokenCounts := countTokenTypeTxs(txs)
	metrics.TxCountALPStandard = tokenCounts.ALPStandard
	metrics.TxCountSLPFungible = tokenCounts.SLPFungible
	metrics.TxCountSLPMintVault = tokenCounts.SLPMintVault
	metrics.TxCountSLPNFT1Group = tokenCounts.SLPNFT1Group
	metrics.TxCountSLPNFT1Child = tokenCounts.SLPNFT1Child

	genesisCounts := countGenesisTxs(txs)
	metrics.TxCountGenesisALPStandard = genesisCounts.ALPStandard
	metrics.TxCountGenesisSLPFungible = genesisCounts.SLPFungible
	metrics.TxCountGenesisSLPMintVault = genesisCounts.SLPMintVault
	metrics.TxCountGenesisSLPNFT1Group = genesisCounts.SLPNFT1Group
	metrics.TxCountGenesisSLPNFT1Child = genesisCounts.SLPNFT1Child

	metrics.AppTxCount = countAppTxs(txs)

	return metrics, nil
}
