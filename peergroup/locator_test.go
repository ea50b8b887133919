package peergroup

import (
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

func mineRegtestHeader(prev wire.BlockHeader, seed byte) wire.BlockHeader {
	h := wire.BlockHeader{
		Version:    1,
		PrevBlock:  prev.BlockHash(),
		MerkleRoot: chainhash.Hash{seed},
		Timestamp:  prev.Timestamp.Add(time.Second),
		Bits:       chaincfg.RegressionNetParams.PowLimitBits,
	}
	target := difficulty.CompactToBig(h.Bits)
	for nonce := uint32(0); ; nonce++ {
		h.Nonce = nonce
		hash := h.BlockHash()
		if difficulty.HashToBig(&hash).Cmp(target) <= 0 {
			return h
		}
	}
}

func TestBuildLocatorIncludesTipAndGenesis(t *testing.T) {
	params := chaincfg.RegressionNetParams
	store := headerfs.NewMemStore()
	e := chainengine.New(&params, store)
	t.Cleanup(e.Stop)
	require.NoError(t, e.EnsureGenesis())

	prev := *params.GenesisBlock
	var last wire.BlockHeader
	for i := 0; i < 15; i++ {
		h := mineRegtestHeader(prev, byte(i+1))
		acc, err := e.AddHeader(&h)
		require.NoError(t, err)
		require.Equal(t, chainengine.BestChain, acc)
		prev = h
		last = h
	}

	tip, err := e.Tip()
	require.NoError(t, err)

	locator, err := buildLocator(e, tip)
	require.NoError(t, err)
	require.NotEmpty(t, locator)

	tipHash := last.BlockHash()
	require.Equal(t, tipHash, *locator[0])

	genesisHash := params.GenesisBlock.BlockHash()
	require.Equal(t, genesisHash, *locator[len(locator)-1])
}
