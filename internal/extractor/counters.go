package extractor

import (
	"encoding/hex"
	"strings"

	"github.com/ecash-community/metachronik/internal/chronik"
	"github.com/ecash-community/metachronik/internal/core/domain"
)

// opFalse terminates an offer: a zero push in the cancel slot of an
// exchange unlocking script marks the spend as a cancellation.
const opFalse = 0x00

// firstInputFrom reports whether the transaction spends from script in its
// first input. All wallet-attribution counters key off the first input.
func firstInputFrom(tx chronik.Tx, script string) bool {
	return len(tx.Inputs) > 0 && tx.Inputs[0].OutputScript == script
}

// countCachetClaims counts transactions that send the fixed Cachet claim
// amount out of the faucet wallet. Each transaction counts once no matter
// how many matching outputs it has.
func countCachetClaims(txs []chronik.Tx) int {
	count := 0
	for _, tx := range txs {
		if tx.IsCoinbase || !firstInputFrom(tx, domain.CashtabClaimScript) {
			continue
		}
		for _, out := range tx.Outputs {
			if out.Token != nil &&
				out.Token.TokenID == domain.CachetTokenID &&
				out.Token.Atoms == domain.CachetClaimAtoms {
				count++
				break
			}
		}
	}
	return count
}

// countFaucetClaims counts transactions paying the fixed faucet amount out
// of the faucet wallet.
func countFaucetClaims(txs []chronik.Tx) int {
	count := 0
	for _, tx := range txs {
		if tx.IsCoinbase || !firstInputFrom(tx, domain.CashtabClaimScript) {
			continue
		}
		for _, out := range tx.Outputs {
			if out.Sats == domain.FaucetClaimSats {
				count++
				break
			}
		}
	}
	return count
}

// countBinanceWithdrawals counts and sums outputs leaving the exchange hot
// wallet. Change back to the hot wallet is excluded, and every external
// output counts separately since one transaction batches many withdrawals.
func countBinanceWithdrawals(txs []chronik.Tx) (count int, totalSats int64) {
	for _, tx := range txs {
		if tx.IsCoinbase || !firstInputFrom(tx, domain.BinanceHotScript) {
			continue
		}
		for _, out := range tx.Outputs {
			if out.OutputScript != domain.BinanceHotScript {
				count++
				totalSats += out.Sats
			}
		}
	}
	return count, totalSats
}

// agoraBuyVolume returns the sats paid to the seller if tx is an exchange
// purchase, zero otherwise. Only the first offer input is examined: a
// cancellation spend contributes no volume even when later inputs would
// match, and the seller payout of a purchase sits at output index 1.
func agoraBuyVolume(tx chronik.Tx) int64 {
	if len(tx.Outputs) < 2 {
		return 0
	}
	for _, in := range tx.Inputs {
		if !in.HasPlugin(domain.AgoraPluginName) {
			continue
		}
		script, err := hex.DecodeString(in.InputScript)
		if err != nil {
			return 0
		}
		ops := scriptOps(script)
		if len(ops) < 2 {
			return 0
		}
		// The cancel flag is the second-to-last op, just before the
		// redeem script push.
		if ops[len(ops)-2] == opFalse {
			return 0
		}
		return tx.Outputs[1].Sats
	}
	return 0
}

// primaryTokenID returns the token id of the transaction's primary token
// entry, or "" when the transaction has no token context.
func primaryTokenID(tx chronik.Tx) string {
	if len(tx.TokenEntries) == 0 {
		return ""
	}
	return tx.TokenEntries[0].TokenID
}

// sumAgoraVolumes totals exchange purchase volume across the block, with
// per-token breakdowns for the two tracked tokens.
func sumAgoraVolumes(txs []chronik.Tx) (total, xecx, firma int64) {
	for _, tx := range txs {
		volume := agoraBuyVolume(tx)
		if volume == 0 {
			continue
		}
		total += volume
		switch primaryTokenID(tx) {
		case domain.XECXTokenID:
			xecx += volume
		case domain.FirmaTokenID:
			firma += volume
		}
	}
	return total, xecx, firma
}

// tokenTypeCounts tallies transactions by the token type of their primary
// token entry.
type tokenTypeCounts struct {
	ALPStandard  int
	SLPFungible  int
	SLPMintVault int
	SLPNFT1Group int
	SLPNFT1Child int
}

func (c *tokenTypeCounts) add(tokenType string) {
	switch tokenType {
	case domain.TokenTypeALPStandard:
		c.ALPStandard++
	case domain.TokenTypeSLPFungible:
		c.SLPFungible++
	case domain.TokenTypeSLPMintVault:
		c.SLPMintVault++
	case domain.TokenTypeSLPNFT1Group:
		c.SLPNFT1Group++
	case domain.TokenTypeSLPNFT1Child:
		c.SLPNFT1Child++
	}
}

func countTokenTypeTxs(txs []chronik.Tx) tokenTypeCounts {
	var counts tokenTypeCounts
	for _, tx := range txs {
		if len(tx.TokenEntries) == 0 {
			continue
		}
		counts.add(tx.TokenEntries[0].TokenType.Type)
	}
	return counts
}

// countGenesisTxs tallies valid token-creation transactions by token type.
func countGenesisTxs(txs []chronik.Tx) tokenTypeCounts {
	var counts tokenTypeCounts
	for _, tx := range txs {
		if len(tx.TokenEntries) == 0 {
			continue
		}
		entry := tx.TokenEntries[0]
		if entry.TxType != domain.TxTypeGenesis || entry.IsInvalid {
			continue
		}
		counts.add(entry.TokenType.Type)
	}
	return counts
}

// countAppTxs counts non-token transactions carrying an OP_RETURN output,
// the data-carrier convention application protocols use.
func countAppTxs(txs []chronik.Tx) int {
	count := 0
	for _, tx := range txs {
		if tx.IsCoinbase || tx.TokenStatus != domain.TokenStatusNonToken {
			continue
		}
		for _, out := range tx.Outputs {
			if strings.HasPrefix(out.OutputScript, domain.OpReturnHexPrefix) {
				count++
				break
			}
		}
	}
	return count
}
