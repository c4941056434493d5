package chronik

// BlockchainInfo describes the current chain tip.
type BlockchainInfo struct {
	TipHash   string `json:"tipHash"`
	TipHeight int64  `json:"tipHeight"`
}

// BlockInfo is a block header summary. SumCoinbaseOutputSats lets the
// extractor synthesize a coinbase for pre-modern single-transaction blocks
// without fetching the transaction list.
type BlockInfo struct {
	Height                int64  `json:"height"`
	Hash                  string `json:"hash"`
	Timestamp             int64  `json:"timestamp,string"`
	NumTxs                int    `json:"numTxs"`
	BlockSize             int64  `json:"blockSize,string"`
	SumCoinbaseOutputSats int64  `json:"sumCoinbaseOutputSats,string"`
}

// Tx carries exactly the transaction detail the metrics extractor consumes.
type Tx struct {
	TxID         string       `json:"txid"`
	IsCoinbase   bool         `json:"isCoinbase"`
	Inputs       []TxInput    `json:"inputs"`
	Outputs      []TxOutput   `json:"outputs"`
	TokenEntries []TokenEntry `json:"tokenEntries"`
	TokenStatus  string       `json:"tokenStatus"`
}

// TxInput is a transaction input. OutputScript is the locking script of the
// spent output; InputScript the unlocking script, both hex.
type TxInput struct {
	OutputScript string                 `json:"outputScript"`
	InputScript  string                 `json:"inputScript"`
	Sats         int64                  `json:"sats,string"`
	Plugins      map[string]PluginEntry `json:"plugins,omitempty"`
}

// TxOutput is a transaction output with its optional token annotation.
type TxOutput struct {
	Sats         int64                  `json:"sats,string"`
	OutputScript string                 `json:"outputScript"`
	Token        *TokenOutput           `json:"token,omitempty"`
	Plugins      map[string]PluginEntry `json:"plugins,omitempty"`
}

// TokenOutput annotates an output carrying token atoms.
type TokenOutput struct {
	TokenID string `json:"tokenId"`
	Atoms   uint64 `json:"atoms,string"`
}

// TokenEntry is one entry of a transaction's token section; the first entry
// is the transaction's primary token context.
type TokenEntry struct {
	TokenID   string    `json:"tokenId"`
	TokenType TokenType `json:"tokenType"`
	TxType    string    `json:"txType"`
	IsInvalid bool      `json:"isInvalid"`
}

// TokenType identifies the token protocol variant of a token entry.
type TokenType struct {
	Protocol string `json:"protocol"`
	Type     string `json:"type"`
	Number   int    `json:"number"`
}

// PluginEntry is the opaque data a chronik plugin attached to an input or
// output. Presence of a plugin key is all the extractor inspects.
type PluginEntry struct {
	Groups []string `json:"groups"`
	Data   []string `json:"data"`
}

// TxPage is one page of a block's transaction list.
type TxPage struct {
	Txs      []Tx `json:"txs"`
	NumPages int  `json:"numPages"`
}

// HasPlugin reports whether the input carries the named plugin marker.
func (in TxInput) HasPlugin(name string) bool {
	_, ok := in.Plugins[name]
	return ok
}
