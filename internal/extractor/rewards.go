package extractor

import (
	"github.com/ecash-community/metachronik/internal/core/domain"
)

// rewardSplit is the coinbase decomposition for one block.
type rewardSplit struct {
	Total   int64
	Miner   int64
	Staking int64
	IFP     int64
}

// ifpScriptAt returns the infrastructure-fund script active at height, or ""
// before activation.
func ifpScriptAt(height int64) string {
	switch {
	case height < domain.IFPActivationHeight:
		return ""
	case height < domain.IFPScriptChangeHeight:
		return domain.IFPScriptOld
	default:
		return domain.IFPScriptNew
	}
}

// splitCoinbase decomposes the coinbase outputs into miner, staking and
// infrastructure-fund portions. The staking portion is the first non-IFP
// output whose value lands in the 10-11% band of the total; the miner
// portion is whatever remains.
func splitCoinbase(height int64, outputs []coinbaseOutput) rewardSplit {
	var split rewardSplit
	for _, out := range outputs {
		split.Total += out.Sats
	}

	ifpScript := ifpScriptAt(height)
	if ifpScript != "" {
		for _, out := range outputs {
			if out.Script == ifpScript {
				split.IFP = out.Sats
				break
			}
		}
	}

	if height >= domain.StakingActivationHeight {
		minStaker := split.Total * domain.StakingRewardsPercent / 100
		maxStaker := split.Total * (domain.StakingRewardsPercent + domain.StakingRewardsPercentPadding) / 100
		for _, out := range outputs {
			if out.Script == ifpScript {
				continue
			}
			if out.Sats >= minStaker && out.Sats <= maxStaker {
				split.Staking = out.Sats
				break
			}
		}
	}

	split.Miner = split.Total - split.IFP - split.Staking
	return split
}

// coinbaseOutput is the minimal output view the reward split needs.
type coinbaseOutput struct {
	Sats   int64
	Script string
}
