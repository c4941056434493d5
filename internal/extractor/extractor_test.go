package extractor

import (
	"errors"
	"testing"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
)

func validHeader(height int64, numTxs int) *chronik.BlockInfo {
	return &chronik.BlockInfo{
		Height:                height,
		Hash:                  "00000000000000000abc",
		Timestamp:             1700000000,
		NumTxs:                numTxs,
		BlockSize:             1234,
		SumCoinbaseOutputSats: 312500000,
	}
}

func coinbaseTx(outputs ...chronik.TxOutput) chronik.Tx {
	return chronik.Tx{TxID: "coinbase", IsCoinbase: true, Outputs: outputs}
}

func TestNeedsTxData(t *testing.T) {
	tests := []struct {
		name   string
		height int64
		numTxs int
		want   bool
	}{
		{"early single-tx block", domain.FirstModernHeight - 1, 1, false},
		{"early multi-tx block", domain.FirstModernHeight - 1, 3, true},
		{"first modern block single tx", domain.FirstModernHeight, 1, true},
		{"modern block", 800000, 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsTxData(validHeader(tt.height, tt.numTxs))
			if got != tt.want {
				t.Errorf("NeedsTxData(height=%d, numTxs=%d) = %v, want %v", tt.height, tt.numTxs, got, tt.want)
			}
		})
	}
}

func TestExtract_InvalidHeader(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*chronik.BlockInfo)
	}{
		{"empty hash", func(h *chronik.BlockInfo) { h.Hash = "" }},
		{"zero timestamp", func(h *chronik.BlockInfo) { h.Timestamp = 0 }},
		{"negative timestamp", func(h *chronik.BlockInfo) { h.Timestamp = -1 }},
		{"zero tx count", func(h *chronik.BlockInfo) { h.NumTxs = 0 }},
		{"negative height", func(h *chronik.BlockInfo) { h.Height = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := validHeader(800000, 1)
			tt.mutate(header)
			_, err := Extract(header, nil)
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("expected ErrInvalidHeader, got %v", err)
			}
		})
	}
}

func TestExtract_EarlyBlockSkipsTxData(t *testing.T) {
	header := validHeader(100000, 1)
	header.SumCoinbaseOutputSats = 5000000000

	metrics, err := Extract(header, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.SumCoinbaseOutputSats != 5000000000 {
		t.Errorf("expected total 5000000000, got %d", metrics.SumCoinbaseOutputSats)
	}
	if metrics.MinerRewardSats != 5000000000 {
		t.Errorf("expected full reward to miner, got %d", metrics.MinerRewardSats)
	}
	if metrics.StakingRewardSats != 0 || metrics.IFPRewardSats != 0 {
		t.Errorf("expected zero staking/ifp for early block, got %d/%d",
			metrics.StakingRewardSats, metrics.IFPRewardSats)
	}
	if metrics.AppTxCount != 0 || metrics.AgoraVolumeSats != 0 {
		t.Errorf("expected zero activity counters for coinbase-only block")
	}
}

func TestExtract_MissingCoinbase(t *testing.T) {
	header := validHeader(800000, 2)

	if _, err := Extract(header, nil); !errors.Is(err, ErrNoCoinbase) {
		t.Errorf("expected ErrNoCoinbase for empty tx list, got %v", err)
	}

	txs := []chronik.Tx{{TxID: "regular", IsCoinbase: false}}
	if _, err := Extract(header, txs); !errors.Is(err, ErrNoCoinbase) {
		t.Errorf("expected ErrNoCoinbase when first tx is not coinbase, got %v", err)
	}
}

func TestExtract_RewardSplitPreStaking(t *testing.T) {
	// After the fund activation but before staking: fund output plus miner.
	header := validHeader(700000, 1)
	header.Height = 700000
	txs := []chronik.Tx{coinbaseTx(
		chronik.TxOutput{Sats: 575000000, OutputScript: "76a914deadbeef88ac"},
		chronik.TxOutput{Sats: 50000000, OutputScript: domain.IFPScriptOld},
	)}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.IFPRewardSats != 50000000 {
		t.Errorf("expected ifp 50000000, got %d", metrics.IFPRewardSats)
	}
	if metrics.StakingRewardSats != 0 {
		t.Errorf("expected zero staking before activation, got %d", metrics.StakingRewardSats)
	}
	if metrics.MinerRewardSats != 575000000 {
		t.Errorf("expected miner 575000000, got %d", metrics.MinerRewardSats)
	}
}

func TestExtract_RewardSplitWithStaking(t *testing.T) {
	// Modern block: 32% fund, 10% staking, rest miner. Total 312500000.
	header := validHeader(820000, 1)
	txs := []chronik.Tx{coinbaseTx(
		chronik.TxOutput{Sats: 181250000, OutputScript: "76a914deadbeef88ac"},
		chronik.TxOutput{Sats: 100000000, OutputScript: domain.IFPScriptNew},
		chronik.TxOutput{Sats: 31250000, OutputScript: "76a914cafe088ac"},
	)}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	total := int64(181250000 + 100000000 + 31250000)
	if metrics.SumCoinbaseOutputSats != total {
		t.Errorf("expected total %d, got %d", total, metrics.SumCoinbaseOutputSats)
	}
	if metrics.IFPRewardSats != 100000000 {
		t.Errorf("expected ifp 100000000, got %d", metrics.IFPRewardSats)
	}
	if metrics.StakingRewardSats != 31250000 {
		t.Errorf("expected staking 31250000, got %d", metrics.StakingRewardSats)
	}
	if metrics.MinerRewardSats != 181250000 {
		t.Errorf("expected miner 181250000, got %d", metrics.MinerRewardSats)
	}
	if sum := metrics.MinerRewardSats + metrics.StakingRewardSats + metrics.IFPRewardSats; sum != total {
		t.Errorf("reward split does not sum to total: %d != %d", sum, total)
	}
}

func TestExtract_StakingIgnoresFundOutputInBand(t *testing.T) {
	// The fund output value sits in the staking band; it must not be
	// double-counted as the staking reward.
	header := validHeader(820000, 1)
	txs := []chronik.Tx{coinbaseTx(
		chronik.TxOutput{Sats: 890, OutputScript: "76a914deadbeef88ac"},
		chronik.TxOutput{Sats: 105, OutputScript: domain.IFPScriptNew},
		chronik.TxOutput{Sats: 5, OutputScript: "76a914cafe088ac"},
	)}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.IFPRewardSats != 105 {
		t.Errorf("expected ifp 105, got %d", metrics.IFPRewardSats)
	}
	if metrics.StakingRewardSats != 0 {
		t.Errorf("expected no staking match, got %d", metrics.StakingRewardSats)
	}
	if metrics.MinerRewardSats != 895 {
		t.Errorf("expected miner 895, got %d", metrics.MinerRewardSats)
	}
}

func TestExtract_FundScriptChangesAtHeight(t *testing.T) {
	outputs := []chronik.TxOutput{
		{Sats: 900, OutputScript: "76a914deadbeef88ac"},
		{Sats: 40, OutputScript: domain.IFPScriptOld},
		{Sats: 60, OutputScript: domain.IFPScriptNew},
	}

	before := validHeader(domain.IFPScriptChangeHeight-1, 1)
	metrics, err := Extract(before, []chronik.Tx{coinbaseTx(outputs...)})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.IFPRewardSats != 40 {
		t.Errorf("expected old script matched before change height, got %d", metrics.IFPRewardSats)
	}

	after := validHeader(domain.IFPScriptChangeHeight, 1)
	metrics, err = Extract(after, []chronik.Tx{coinbaseTx(outputs...)})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.IFPRewardSats != 60 {
		t.Errorf("expected new script matched at change height, got %d", metrics.IFPRewardSats)
	}
}

func TestExtract_ClaimCounters(t *testing.T) {
	header := validHeader(850000, 5)
	claimInput := chronik.TxInput{OutputScript: domain.CashtabClaimScript}

	txs := []chronik.Tx{
		coinbaseTx(chronik.TxOutput{Sats: 312500000, OutputScript: "76a91400"}),
		// Cachet claim: token output with the claim amount.
		{
			TxID:   "claim1",
			Inputs: []chronik.TxInput{claimInput},
			Outputs: []chronik.TxOutput{
				{Sats: 546, Token: &chronik.TokenOutput{TokenID: domain.CachetTokenID, Atoms: domain.CachetClaimAtoms}},
				{Sats: 546, Token: &chronik.TokenOutput{TokenID: domain.CachetTokenID, Atoms: domain.CachetClaimAtoms}},
			},
		},
		// Faucet claim: plain 4200 sat output.
		{
			TxID:    "claim2",
			Inputs:  []chronik.TxInput{claimInput},
			Outputs: []chronik.TxOutput{{Sats: domain.FaucetClaimSats}},
		},
		// Wrong wallet: same shape, different first input.
		{
			TxID:    "other",
			Inputs:  []chronik.TxInput{{OutputScript: "76a914ffff88ac"}},
			Outputs: []chronik.TxOutput{{Sats: domain.FaucetClaimSats}},
		},
		// Right wallet, wrong token amount.
		{
			TxID:   "partial",
			Inputs: []chronik.TxInput{claimInput},
			Outputs: []chronik.TxOutput{
				{Sats: 546, Token: &chronik.TokenOutput{TokenID: domain.CachetTokenID, Atoms: 999}},
			},
		},
	}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.CachetClaimCount != 1 {
		t.Errorf("expected 1 cachet claim, got %d", metrics.CachetClaimCount)
	}
	if metrics.CashtabFaucetClaimCount != 1 {
		t.Errorf("expected 1 faucet claim, got %d", metrics.CashtabFaucetClaimCount)
	}
}

func TestExtract_BinanceWithdrawals(t *testing.T) {
	header := validHeader(850000, 2)
	txs := []chronik.Tx{
		coinbaseTx(chronik.TxOutput{Sats: 312500000, OutputScript: "76a91400"}),
		{
			TxID:   "withdrawal-batch",
			Inputs: []chronik.TxInput{{OutputScript: domain.BinanceHotScript}},
			Outputs: []chronik.TxOutput{
				{Sats: 100000, OutputScript: "76a914aaaa88ac"},
				{Sats: 250000, OutputScript: "76a914bbbb88ac"},
				// Change back to the hot wallet is not a withdrawal.
				{Sats: 990000, OutputScript: domain.BinanceHotScript},
			},
		},
	}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.BinanceWithdrawalCount != 2 {
		t.Errorf("expected 2 withdrawals, got %d", metrics.BinanceWithdrawalCount)
	}
	if metrics.BinanceWithdrawalSats != 350000 {
		t.Errorf("expected 350000 withdrawal sats, got %d", metrics.BinanceWithdrawalSats)
	}
}

func TestExtract_TokenTypeAndGenesisCounts(t *testing.T) {
	header := validHeader(850000, 4)
	txs := []chronik.Tx{
		coinbaseTx(chronik.TxOutput{Sats: 312500000, OutputScript: "76a91400"}),
		{
			TxID: "alp-send",
			TokenEntries: []chronik.TokenEntry{
				{TokenID: "aa", TokenType: chronik.TokenType{Type: domain.TokenTypeALPStandard}, TxType: "SEND"},
			},
		},
		{
			TxID: "slp-genesis",
			TokenEntries: []chronik.TokenEntry{
				{TokenID: "bb", TokenType: chronik.TokenType{Type: domain.TokenTypeSLPFungible}, TxType: domain.TxTypeGenesis},
			},
		},
		{
			TxID: "invalid-genesis",
			TokenEntries: []chronik.TokenEntry{
				{TokenID: "cc", TokenType: chronik.TokenType{Type: domain.TokenTypeSLPNFT1Child}, TxType: domain.TxTypeGenesis, IsInvalid: true},
			},
		},
	}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.TxCountALPStandard != 1 {
		t.Errorf("expected 1 ALP standard tx, got %d", metrics.TxCountALPStandard)
	}
	if metrics.TxCountSLPFungible != 1 {
		t.Errorf("expected 1 SLP fungible tx, got %d", metrics.TxCountSLPFungible)
	}
	// The invalid genesis still counts as an NFT1 child tx by type.
	if metrics.TxCountSLPNFT1Child != 1 {
		t.Errorf("expected 1 SLP NFT1 child tx, got %d", metrics.TxCountSLPNFT1Child)
	}
	if metrics.TxCountGenesisSLPFungible != 1 {
		t.Errorf("expected 1 SLP fungible genesis, got %d", metrics.TxCountGenesisSLPFungible)
	}
	if metrics.TxCountGenesisALPStandard != 0 {
		t.Errorf("expected 0 ALP genesis, got %d", metrics.TxCountGenesisALPStandard)
	}
	if metrics.TxCountGenesisSLPNFT1Child != 0 {
		t.Errorf("invalid genesis must not count, got %d", metrics.TxCountGenesisSLPNFT1Child)
	}
}

func TestExtract_AppTxCount(t *testing.T) {
	header := validHeader(850000, 4)
	txs := []chronik.Tx{
		coinbaseTx(chronik.TxOutput{Sats: 312500000, OutputScript: "76a91400"}),
		// Non-token tx with an OP_RETURN output.
		{
			TxID:        "app",
			TokenStatus: domain.TokenStatusNonToken,
			Outputs: []chronik.TxOutput{
				{Sats: 0, OutputScript: "6a04deadbeef"},
				{Sats: 546, OutputScript: "76a914aaaa88ac"},
			},
		},
		// Token tx with OP_RETURN does not count.
		{
			TxID:        "token",
			TokenStatus: "TOKEN_STATUS_NORMAL",
			Outputs:     []chronik.TxOutput{{Sats: 0, OutputScript: "6a04beef"}},
		},
		// Non-token tx without OP_RETURN does not count.
		{
			TxID:        "plain",
			TokenStatus: domain.TokenStatusNonToken,
			Outputs:     []chronik.TxOutput{{Sats: 546, OutputScript: "76a914bbbb88ac"}},
		},
	}

	metrics, err := Extract(header, txs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if metrics.AppTxCount != 1 {
		t.Errorf("expected 1 app tx, got %d", metrics.AppTxCount)
	}
}
