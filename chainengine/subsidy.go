package chainengine

import "github.com/ltcsuite/ltcspv/chaincfg"

// baseSubsidy is the block reward at height 0, in satoshis: 50 LTC.
const baseSubsidy = 50 * 1e8

// CalcBlockSubsidy returns the block reward (inflation) paid to the
// coinbase at height, in satoshis: the base subsidy halved once per
// SubsidyReductionInterval blocks, grounded on litecoinj's
// BitcoinNetworkParams.getBlockInflation
// (Coin.FIFTY_COINS.shiftRight(height / subsidyDecreaseBlockCount)).
//
// A halving count that would shift the subsidy past bit 63 returns 0
// rather than relying on Go's shift-by-too-much behavior.
func CalcBlockSubsidy(height uint32, params *chaincfg.Params) int64 {
	halvings := height / uint32(params.SubsidyReductionInterval)
	if halvings >= 64 {
		return 0
	}
	return baseSubsidy >> halvings
}

// BlockSubsidy returns CalcBlockSubsidy for height under e's network
// parameters.
func (e *Engine) BlockSubsidy(height uint32) int64 {
	return CalcBlockSubsidy(height, e.params)
}
