package peergroup

import (
	"github.com/ltcsuite/ltcspv/chainengine"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/headerfs"
	"github.com/ltcsuite/ltcspv/wire"
)

// buildLocator implements the standard Bitcoin-family locator: the tip
// and the nine blocks immediately below it, then exponentially sparser going back,
// ending at genesis. The download peer uses it to find where its view
// of the chain diverges from ours.
func buildLocator(engine *chainengine.Engine, tip *headerfs.StoredBlock) (wire.BlockLocator, er.R) {
	var locator wire.BlockLocator
	step := uint32(1)
	height := tip.Height
	cur := tip

	for {
		hash := cur.Hash()
		locator = append(locator, &hash)
		if height == 0 {
			break
		}
		if len(locator) >= 10 {
			step *= 2
		}
		if step > height {
			height = 0
		} else {
			height -= step
		}
		ancestor, err := engine.Ancestor(tip, height)
		if err != nil {
			return nil, err
		}
		cur = ancestor
	}
	return locator, nil
}
