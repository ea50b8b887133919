package chainengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/chaincfg"
)

func TestCalcBlockSubsidy(t *testing.T) {
	params := &chaincfg.MainNetParams
	interval := uint32(params.SubsidyReductionInterval)

	require.Equal(t, int64(50*1e8), CalcBlockSubsidy(0, params))
	require.Equal(t, int64(50*1e8), CalcBlockSubsidy(interval-1, params))
	require.Equal(t, int64(25*1e8), CalcBlockSubsidy(interval, params))
	require.Equal(t, int64(25*1e8), CalcBlockSubsidy(interval+1, params))
	require.Equal(t, int64(1250000000), CalcBlockSubsidy(interval*2, params))
}

func TestCalcBlockSubsidyExhaustsToZero(t *testing.T) {
	params := &chaincfg.MainNetParams
	interval := uint32(params.SubsidyReductionInterval)

	require.Equal(t, int64(0), CalcBlockSubsidy(interval*64, params))
	require.Equal(t, int64(0), CalcBlockSubsidy(interval*100, params))
}
