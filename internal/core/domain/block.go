package domain

// BlockMetrics is the flat per-block metrics record persisted to the blocks
// table. One row per height; rows are immutable once written (the repository
// upsert is "do nothing on conflict").
type BlockMetrics struct {
	Height    int64
	Hash      string
	Timestamp int64
	TxCount   int
	BlockSize int64

	// Coinbase reward split. MinerRewardSats is the residual, so
	// MinerRewardSats + StakingRewardSats + IFPRewardSats always equals
	// SumCoinbaseOutputSats.
	SumCoinbaseOutputSats int64
	MinerRewardSats       int64
	StakingRewardSats     int64
	IFPRewardSats         int64

	// Per-token-type transaction counts (primary token entry).
	TxCountALPStandard  int
	TxCountSLPFungible  int
	TxCountSLPMintVault int
	TxCountSLPNFT1Group int
	TxCountSLPNFT1Child int

	// Genesis variants of the same categories.
	TxCountGenesisALPStandard  int
	TxCountGenesisSLPFungible  int
	TxCountGenesisSLPMintVault int
	TxCountGenesisSLPNFT1Group int
	TxCountGenesisSLPNFT1Child int

	// Claim and custodial withdrawal counters.
	CachetClaimCount        int
	CashtabFaucetClaimCount int
	BinanceWithdrawalCount  int
	BinanceWithdrawalSats   int64

	// Agora marketplace volume, total plus token-specific buckets.
	AgoraVolumeSats      int64
	AgoraVolumeXECXSats  int64
	AgoraVolumeFirmaSats int64

	// Non-token transactions carrying at least one OP_RETURN output.
	AppTxCount int
}
