package domain

// Chain parameters for eCash (XEC). Heights are mainnet activation heights;
// scripts are hex-encoded output scripts.
const (
	// FirstModernHeight is the first XEC block. Blocks below this height
	// with exactly one transaction are guaranteed coinbase-only.
	FirstModernHeight = 661642

	// IFPActivationHeight is the height the issuance fund payout became
	// part of every coinbase.
	IFPActivationHeight = 661648

	// IFPScriptChangeHeight is the height the fund payout moved to the
	// new output script.
	IFPScriptChangeHeight = 739536

	IFPScriptOld = "a914260617ebf668c9102f71ce24aba97fcaaf9c666a87"
	IFPScriptNew = "a914d37c4c809fe9840e7bfa77b86bd47163f6fb6c6087"

	// StakingActivationHeight is the height avalanche staking rewards
	// activated.
	StakingActivationHeight = 818670

	// StakingRewardsPercent is the protocol staking share of the total
	// coinbase output. Detection allows one extra percentage point of
	// tolerance on top.
	StakingRewardsPercent        = 10
	StakingRewardsPercentPadding = 1
)

// Known scripts and token ids for the claim, withdrawal and marketplace
// counters.
const (
	// CashtabClaimScript is the hot wallet funding both Cachet claims and
	// the XEC faucet; claims are recognized by it being the first input.
	CashtabClaimScript = "76a914821407ac2993f8684227004f4086082f3f801da788ac"

	CachetTokenID     = "aed861a31b96934b88c0252ede135cb9700d7649f69191235087a3030e553cb1"
	CachetClaimAtoms  = 10000
	FaucetClaimSats   = 4200
	BinanceHotScript  = "76a914231f7087937684790d1049294f3aef9cfb7b05dd88ac"
	XECXTokenID       = "c67bf5c2b6d91cfb46a5c1772582eff80d88686887be10aa63b0945479cf4ed4"
	FirmaTokenID      = "0387947fd575db4fb19a3e322f635dec37fd192b5941625b66bc4b2c3008cbf0"
	AgoraPluginName   = "agora"
	OpReturnHexPrefix = "6a"
)

// Token type identifiers as reported by the upstream indexer.
const (
	TokenTypeALPStandard  = "ALP_TOKEN_TYPE_STANDARD"
	TokenTypeSLPFungible  = "SLP_TOKEN_TYPE_FUNGIBLE"
	TokenTypeSLPMintVault = "SLP_TOKEN_TYPE_MINT_VAULT"
	TokenTypeSLPNFT1Group = "SLP_TOKEN_TYPE_NFT1_GROUP"
	TokenTypeSLPNFT1Child = "SLP_TOKEN_TYPE_NFT1_CHILD"

	TxTypeGenesis       = "GENESIS"
	TokenStatusNonToken = "TOKEN_STATUS_NON_TOKEN"
)
