package chainengine_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainengine"
	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/difficulty"
	"github.com/ltcsuite/ltcspv/headerfs"
	"github.com/ltcsuite/ltcspv/wire"
)

// testParams starts from regtest (trivial PowLimit, so headers can be
// "mined" in a handful of nonce tries) but turns retargeting back on
// with a short 4-block interval, so reorg and retarget behavior can be
// exercised without grinding real Litecoin-mainnet difficulty.
func testParams() *chaincfg.Params {
	p := chaincfg.RegressionNetParams
	p.NoRetarget = false
	p.TargetTimespan = 4 * time.Second
	p.TargetTimePerBlock = 1 * time.Second
	p.RetargetAdjustmentFactor = 4
	return &p
}

func mineHeader(prev wire.BlockHeader, timestamp time.Time, bits uint32) wire.BlockHeader {
	return mineHeaderSeed(prev, timestamp, bits, 0x01)
}

// mineHeaderSeed is mineHeader with a caller-chosen merkle-root seed byte,
// so two independently-mined branches off the same parent and timestamp
// don't happen to converge on the identical header.
func mineHeaderSeed(prev wire.BlockHeader, timestamp time.Time, bits uint32, seed byte) wire.BlockHeader {
	h := wire.BlockHeader{
		Version:    1,
		PrevBlock:  prev.BlockHash(),
		MerkleRoot: chainhash.Hash{seed},
		Timestamp:  timestamp,
		Bits:       bits,
	}
	target := difficulty.CompactToBig(bits)
	for nonce := uint32(0); ; nonce++ {
		h.Nonce = nonce
		hash := h.BlockHash()
		if difficulty.HashToBig(&hash).Cmp(target) <= 0 {
			return h
		}
	}
}

func newTestEngine(t *testing.T, params *chaincfg.Params) (*chainengine.Engine, headerfs.BlockStore) {
	t.Helper()
	store := headerfs.NewMemStore()
	e := chainengine.New(params, store)
	t.Cleanup(e.Stop)
	require.NoError(t, e.EnsureGenesis())
	return e, store
}

func TestAddHeaderExtendsBestChain(t *testing.T) {
	params := testParams()
	e, store := newTestEngine(t, params)

	b1 := mineHeader(*params.GenesisBlock, params.GenesisBlock.Timestamp.Add(time.Second), params.PowLimitBits)

	acc, err := e.AddHeader(&b1)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	tip, err := store.ChainTip()
	require.NoError(t, err)
	require.Equal(t, uint32(1), tip.Height)
	require.True(t, tip.ChainWork.Cmp(difficulty.CalcWork(params.GenesisBlock.Bits)) > 0)
}

func TestAddHeaderDuplicate(t *testing.T) {
	params := testParams()
	e, _ := newTestEngine(t, params)

	b1 := mineHeader(*params.GenesisBlock, params.GenesisBlock.Timestamp.Add(time.Second), params.PowLimitBits)

	acc, err := e.AddHeader(&b1)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	acc, err = e.AddHeader(&b1)
	require.NoError(t, err)
	require.Equal(t, chainengine.Duplicate, acc)
}

func TestAddHeaderOrphanThenResolves(t *testing.T) {
	params := testParams()
	e, store := newTestEngine(t, params)

	b1 := mineHeader(*params.GenesisBlock, params.GenesisBlock.Timestamp.Add(time.Second), params.PowLimitBits)
	b2 := mineHeader(b1, b1.Timestamp.Add(time.Second), params.PowLimitBits)

	acc, err := e.AddHeader(&b2)
	require.NoError(t, err)
	require.Equal(t, chainengine.Orphan, acc)

	var mu sync.Mutex
	var tips []chainhash.Hash
	done := make(chan struct{}, 2)
	e.OnNewBestBlock(func(sb *headerfs.StoredBlock) {
		mu.Lock()
		h := sb.Hash()
		tips = append(tips, h)
		mu.Unlock()
		done <- struct{}{}
	})

	acc, err = e.AddHeader(&b1)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for best-block notifications")
		}
	}

	tip, err := store.ChainTip()
	require.NoError(t, err)
	b2Hash := b2.BlockHash()
	require.True(t, tip.Hash() == b2Hash)
	require.Equal(t, uint32(2), tip.Height)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, tips, 2)
	b1Hash := b1.BlockHash()
	require.Equal(t, b1Hash, tips[0])
	require.Equal(t, b2Hash, tips[1])
}

func TestAddHeaderReorgToHeavierBranch(t *testing.T) {
	params := testParams()
	e, store := newTestEngine(t, params)

	a1 := mineHeader(*params.GenesisBlock, params.GenesisBlock.Timestamp.Add(time.Second), params.PowLimitBits)
	acc, err := e.AddHeader(&a1)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	b1 := mineHeaderSeed(*params.GenesisBlock, params.GenesisBlock.Timestamp.Add(time.Second), params.PowLimitBits, 0x02)
	b2 := mineHeader(b1, b1.Timestamp.Add(time.Second), params.PowLimitBits)

	var detached, attached []*headerfs.StoredBlock
	reorgCh := make(chan struct{}, 1)
	e.OnReorg(func(d, a []*headerfs.StoredBlock) {
		detached = d
		attached = a
		reorgCh <- struct{}{}
	})

	acc, err = e.AddHeader(&b1)
	require.NoError(t, err)
	require.Equal(t, chainengine.SideChain, acc)

	acc, err = e.AddHeader(&b2)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	select {
	case <-reorgCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reorg notification")
	}

	require.Len(t, detached, 1)
	require.Len(t, attached, 2)
	a1Hash := a1.BlockHash()
	require.True(t, detached[0].Hash() == a1Hash)

	tip, err := store.ChainTip()
	require.NoError(t, err)
	b2Hash := b2.BlockHash()
	require.True(t, tip.Hash() == b2Hash)
}

func TestAddHeaderBadPowRejected(t *testing.T) {
	params := testParams()
	e, _ := newTestEngine(t, params)

	target := difficulty.CompactToBig(params.PowLimitBits)
	h := wire.BlockHeader{
		Version:    1,
		PrevBlock:  params.GenesisBlock.BlockHash(),
		MerkleRoot: chainhash.Hash{0x01},
		Timestamp:  params.GenesisBlock.Timestamp.Add(time.Second),
		Bits:       params.PowLimitBits,
	}
	// Find a nonce whose hash exceeds the target instead of satisfying it.
	for nonce := uint32(0); ; nonce++ {
		h.Nonce = nonce
		hash := h.BlockHash()
		if difficulty.HashToBig(&hash).Cmp(target) > 0 {
			break
		}
	}

	_, err := e.AddHeader(&h)
	require.Error(t, err)
	require.True(t, chainengine.ErrHighHash.Is(err))
}

func TestAddHeaderRetargetAtInterval(t *testing.T) {
	params := testParams()
	e, store := newTestEngine(t, params)

	interval := params.Interval()
	require.Equal(t, int32(4), interval)

	// Blocks land one TargetTimePerBlock apart, so the lookback span
	// from genesis to the block just before the interval boundary is
	// (interval-1) * TargetTimePerBlock -- shorter than TargetTimespan,
	// so the retarget should tighten the target rather than leave it
	// at PowLimitBits.
	prev := *params.GenesisBlock
	ts := params.GenesisBlock.Timestamp
	for i := int32(0); i < interval-1; i++ {
		ts = ts.Add(params.TargetTimePerBlock)
		hdr := mineHeader(prev, ts, params.PowLimitBits)
		acc, err := e.AddHeader(&hdr)
		require.NoError(t, err)
		require.Equal(t, chainengine.BestChain, acc)
		prev = hdr
	}

	timespan := time.Duration(interval-1) * params.TargetTimePerBlock
	factor := time.Duration(params.RetargetAdjustmentFactor)
	if minSpan := params.TargetTimespan / factor; timespan < minSpan {
		timespan = minSpan
	} else if maxSpan := params.TargetTimespan * factor; timespan > maxSpan {
		timespan = maxSpan
	}
	oldTarget := difficulty.CompactToBig(params.PowLimitBits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(timespan/time.Second)))
	newTarget.Div(newTarget, big.NewInt(int64(params.TargetTimespan/time.Second)))
	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget = params.PowLimit
	}
	expectedBits := difficulty.BigToCompact(newTarget)
	require.NotEqual(t, params.PowLimitBits, expectedBits)

	ts = ts.Add(params.TargetTimePerBlock)
	boundary := mineHeader(prev, ts, expectedBits)
	acc, err := e.AddHeader(&boundary)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	tip, err := store.ChainTip()
	require.NoError(t, err)
	require.Equal(t, uint32(interval), tip.Height)
	require.Equal(t, expectedBits, tip.Header.Bits)
}

// TestAddHeaderRetargetOneOffLooksBackOneLessBlock exercises the
// LitecoinRetargetOneOff branch directly: at the very first retarget
// boundary (height == interval) the lookback walks back interval-1
// blocks (landing on height 1) rather than interval blocks (height 0,
// genesis), per the historic exception in litecoinj's
// BitcoinNetworkParams.checkDifficultyTransitions. testParams leaves
// the flag at its regtest default (false), so it's set explicitly here;
// TestAddHeaderRetargetAtInterval above exercises the general,
// flag-off, lookback-by-interval case.
func TestAddHeaderRetargetOneOffLooksBackOneLessBlock(t *testing.T) {
	params := testParams()
	params.LitecoinRetargetOneOff = true
	e, store := newTestEngine(t, params)

	interval := params.Interval()
	require.Equal(t, int32(4), interval)

	// Irregular inter-block gaps so the interval-1 lookback (height 1)
	// and the interval lookback (genesis, height 0) would each compute a
	// materially different target, proving which one the engine used.
	genesisTs := params.GenesisBlock.Timestamp
	gaps := []time.Duration{5 * time.Second, 1 * time.Second, 1 * time.Second}

	prev := *params.GenesisBlock
	ts := genesisTs
	var height1Header wire.BlockHeader
	for i, gap := range gaps {
		ts = ts.Add(gap)
		hdr := mineHeader(prev, ts, params.PowLimitBits)
		acc, err := e.AddHeader(&hdr)
		require.NoError(t, err)
		require.Equal(t, chainengine.BestChain, acc)
		if i == 0 {
			height1Header = hdr
		}
		prev = hdr
	}

	// One-off lookback: parent (height 3) back to height 1.
	oneOffTimespan := clampTimespan(params, prev.Timestamp.Sub(height1Header.Timestamp))
	// General lookback: parent (height 3) back to height 0 (genesis).
	generalTimespan := clampTimespan(params, prev.Timestamp.Sub(genesisTs))
	require.NotEqual(t, oneOffTimespan, generalTimespan)

	oldTarget := difficulty.CompactToBig(params.PowLimitBits)
	oneOffTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(oneOffTimespan/time.Second)))
	oneOffTarget.Div(oneOffTarget, big.NewInt(int64(params.TargetTimespan/time.Second)))
	if oneOffTarget.Cmp(params.PowLimit) > 0 {
		oneOffTarget = params.PowLimit
	}
	oneOffBits := difficulty.BigToCompact(oneOffTarget)

	generalTarget := new(big.Int).Mul(oldTarget, big.NewInt(int64(generalTimespan/time.Second)))
	generalTarget.Div(generalTarget, big.NewInt(int64(params.TargetTimespan/time.Second)))
	if generalTarget.Cmp(params.PowLimit) > 0 {
		generalTarget = params.PowLimit
	}
	generalBits := difficulty.BigToCompact(generalTarget)
	require.NotEqual(t, oneOffBits, generalBits)

	ts = ts.Add(params.TargetTimePerBlock)
	boundary := mineHeader(prev, ts, oneOffBits)
	acc, err := e.AddHeader(&boundary)
	require.NoError(t, err)
	require.Equal(t, chainengine.BestChain, acc)

	tip, err := store.ChainTip()
	require.NoError(t, err)
	require.Equal(t, uint32(interval), tip.Height)
	require.Equal(t, oneOffBits, tip.Header.Bits)

	// The header carrying the general (interval-lookback) bits must be
	// rejected: the engine should have validated against the one-off
	// lookback instead.
	rejected := mineHeader(prev, ts, generalBits)
	_, err = e.AddHeader(&rejected)
	require.True(t, chainengine.ErrUnexpectedDifficulty.Is(err))
}

func clampTimespan(params *chaincfg.Params, timespan time.Duration) time.Duration {
	factor := time.Duration(params.RetargetAdjustmentFactor)
	if minSpan := params.TargetTimespan / factor; timespan < minSpan {
		return minSpan
	} else if maxSpan := params.TargetTimespan * factor; timespan > maxSpan {
		return maxSpan
	}
	return timespan
}
