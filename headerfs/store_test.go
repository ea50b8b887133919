package headerfs

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/wire"
)

func sampleStoredBlock() *StoredBlock {
	return &StoredBlock{
		Header: wire.BlockHeader{
			Version:    1,
			PrevBlock:  chainhash.Hash{0xaa, 0xbb},
			MerkleRoot: chainhash.Hash{0xcc, 0xdd},
			Timestamp:  time.Unix(1317972665, 0),
			Bits:       0x1e0ffff0,
			Nonce:      2084524493,
		},
		ChainWork: big.NewInt(123456789),
		Height:    638902,
	}
}

// TestStoredBlockCompactRoundTrip checks the round-trip law spec.md
// requires of the compact StoredBlock encoding: deserializeCompact
// (serializeCompact(sb)) == sb.
func TestStoredBlockCompactRoundTrip(t *testing.T) {
	sb := sampleStoredBlock()

	b, err := sb.serialize()
	require.Nil(t, err)
	require.Len(t, b, storedBlockLen)

	got, err := DeserializeCompact(b)
	require.Nil(t, err)

	require.Equal(t, sb.Height, got.Height)
	require.Equal(t, 0, sb.ChainWork.Cmp(got.ChainWork))
	require.True(t, sb.Header.Timestamp.Equal(got.Header.Timestamp))
	require.Equal(t, sb.Header.Version, got.Header.Version)
	require.Equal(t, sb.Header.PrevBlock, got.Header.PrevBlock)
	require.Equal(t, sb.Header.MerkleRoot, got.Header.MerkleRoot)
	require.Equal(t, sb.Header.Bits, got.Header.Bits)
	require.Equal(t, sb.Header.Nonce, got.Header.Nonce)
	require.Equal(t, sb.Hash(), got.Hash())
}

// TestStoredBlockCompactRoundTripZeroWork exercises the all-zero ChainWork
// case, where Bytes() returns an empty slice rather than a short one.
func TestStoredBlockCompactRoundTripZeroWork(t *testing.T) {
	sb := sampleStoredBlock()
	sb.ChainWork = big.NewInt(0)

	b, err := sb.serialize()
	require.Nil(t, err)

	got, err := DeserializeCompact(b)
	require.Nil(t, err)
	require.Equal(t, 0, got.ChainWork.Sign())
}

func TestStoredBlockSerializeRejectsOverflowingWork(t *testing.T) {
	sb := sampleStoredBlock()
	sb.ChainWork = new(big.Int).Lsh(big.NewInt(1), 97)

	_, err := sb.serialize()
	require.NotNil(t, err)
}

func TestDeserializeCompactRejectsWrongLength(t *testing.T) {
	_, err := DeserializeCompact(make([]byte, storedBlockLen-1))
	require.NotNil(t, err)
	require.True(t, ErrCorruptRecord.Is(err))
}
