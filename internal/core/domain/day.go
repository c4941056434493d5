package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date format used for day rollups.
// Day boundaries are always UTC.
const DateLayout = "2006-01-02"

// DateOfTimestamp returns the UTC calendar date of a unix timestamp.
func DateOfTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(DateLayout)
}

// Today returns the current UTC calendar date.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// ParseDate validates a calendar-date string against DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DayStats is one day rollup row: the sum of every BlockMetrics numeric
// field across the date's blocks, plus block/size aggregates and a price
// snapshot. Every field is overwritten on re-aggregation except PriceUSD,
// which is fixed when the row is first created.
type DayStats struct {
	Date              string
	TotalBlocks       int
	TotalTransactions int64
	AvgBlockSize      float64

	SumCoinbaseOutputSats int64
	MinerRewardSats       int64
	StakingRewardSats     int64
	IFPRewardSats         int64

	TxCountALPStandard  int64
	TxCountSLPFungible  int64
	TxCountSLPMintVault int64
	TxCountSLPNFT1Group int64
	TxCountSLPNFT1Child int64

	TxCountGenesisALPStandard  int64
	TxCountGenesisSLPFungible  int64
	TxCountGenesisSLPMintVault int64
	TxCountGenesisSLPNFT1Group int64
	TxCountGenesisSLPNFT1Child int64

	CachetClaimCount        int64
	CashtabFaucetClaimCount int64
	BinanceWithdrawalCount  int64
	BinanceWithdrawalSats   int64

	AgoraVolumeSats      int64
	AgoraVolumeXECXSats  int64
	AgoraVolumeFirmaSats int64

	AppTxCount int64

	// Nil when the row was created for a past date: spot price cannot be
	// reconstructed retroactively.
	PriceUSD *decimal.Decimal
}
