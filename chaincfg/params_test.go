package chaincfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/wire/protocol"
)

func TestMainNetGenesisHash(t *testing.T) {
	got := MainNetParams.GenesisBlock.BlockHash()
	require.True(t, got.IsEqual(MainNetParams.GenesisHash),
		"computed genesis hash %s does not match GenesisHash %s",
		got, MainNetParams.GenesisHash)
}

func TestRegTestGenesisHash(t *testing.T) {
	got := RegressionNetParams.GenesisBlock.BlockHash()
	require.True(t, got.IsEqual(RegressionNetParams.GenesisHash))
}

func TestInterval(t *testing.T) {
	require.Equal(t, int32(2016), MainNetParams.Interval())
}

func TestParamsForNet(t *testing.T) {
	p, err := ParamsForNet(protocol.MainNet)
	require.Nil(t, err)
	require.Same(t, &MainNetParams, p)

	_, err = ParamsForNet(protocol.BitcoinNet(0xdeadbeef))
	require.NotNil(t, err)
	require.True(t, ErrUnknownNet.Is(err))
}

func TestCheckpointsAscending(t *testing.T) {
	for i := 1; i < len(MainNetParams.Checkpoints); i++ {
		require.Less(t, MainNetParams.Checkpoints[i-1].Height, MainNetParams.Checkpoints[i].Height)
	}
}
