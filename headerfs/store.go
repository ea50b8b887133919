// Package headerfs implements BlockStore, the persistent, reorg-capable
// store of chain headers the chain engine reads and writes. Unlike a
// single best-chain header index, a BlockStore retains every header
// ever validated, keyed by hash, so a reorg can resurrect a side chain
// without needing to re-download it.
//
// This package is grounded on neutrino/headerfs's flat-file-plus-index
// design, adapted from a single linear chain (with a rollback-only undo
// path) to a hash-keyed store backing the directed tree of StoredBlocks
// the chain engine maintains.
package headerfs

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire"
)

// Err identifies a headerfs failure.
var Err = er.NewErrorType("headerfs.Err")

var (
	// ErrHeaderNotFound is returned when a requested header isn't present
	// in the store.
	ErrHeaderNotFound = Err.CodeWithDetail("ErrHeaderNotFound", "header not found")

	// ErrNoChainTip is returned by ChainTip when the store is empty (no
	// genesis has been seeded yet).
	ErrNoChainTip = Err.CodeWithDetail("ErrNoChainTip", "no chain tip set")

	// ErrCorruptRecord is returned when a stored record doesn't decode to
	// the expected 96-byte compact StoredBlock encoding.
	ErrCorruptRecord = Err.CodeWithDetail("ErrCorruptRecord", "corrupt stored block record")

	// ErrConflict is returned by Put when a different StoredBlock is
	// already on file for the same hash. Re-putting a byte-identical
	// record is a no-op, not a conflict.
	ErrConflict = Err.CodeWithDetail("ErrConflict", "conflicting record already stored for this hash")
)

// storedBlockLen is the length, in bytes, of a StoredBlock's compact
// on-disk encoding: 12-byte big-endian chainWork, 4-byte big-endian
// height, 80-byte header.
const storedBlockLen = 12 + 4 + wire.BlockHeaderLen

// StoredBlock is the unit the chain engine persists: a header, its
// height, and the cumulative proof-of-work (chainWork) of the chain
// ending at it.
type StoredBlock struct {
	Header    wire.BlockHeader
	ChainWork *big.Int
	Height    uint32
}

// Hash returns the block hash of the stored header.
func (sb *StoredBlock) Hash() chainhash.Hash { return sb.Header.BlockHash() }

// serialize encodes sb into the fixed 96-byte compact form.
func (sb *StoredBlock) serialize() ([]byte, er.R) {
	var buf bytes.Buffer
	buf.Grow(storedBlockLen)

	workBytes := sb.ChainWork.Bytes()
	if len(workBytes) > 12 {
		return nil, er.New("chainWork overflows 96-bit compact encoding")
	}
	var work [12]byte
	copy(work[12-len(workBytes):], workBytes)
	buf.Write(work[:])

	var height [4]byte
	binary.BigEndian.PutUint32(height[:], sb.Height)
	buf.Write(height[:])

	if err := sb.Header.BtcEncode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeCompact decodes the fixed 96-byte compact form (12-byte
// big-endian chainWork, 4-byte big-endian height, 80-byte header) used
// both by BlockStore's on-disk records and by the checkpoints package's
// bundle format.
func DeserializeCompact(b []byte) (*StoredBlock, er.R) {
	return deserializeStoredBlock(b)
}

// deserializeStoredBlock decodes the fixed 96-byte compact form produced
// by serialize.
func deserializeStoredBlock(b []byte) (*StoredBlock, er.R) {
	if len(b) != storedBlockLen {
		return nil, ErrCorruptRecord.Default()
	}
	work := new(big.Int).SetBytes(b[0:12])
	height := binary.BigEndian.Uint32(b[12:16])

	var hdr wire.BlockHeader
	if err := hdr.BtcDecode(bytes.NewReader(b[16:]), 0); err != nil {
		return nil, err
	}

	return &StoredBlock{Header: hdr, ChainWork: work, Height: height}, nil
}

// BlockStore is the persistence contract the chain engine depends on.
// Implementations retain every header ever written, keyed by its hash,
// plus a single mutable "head" pointer the chain engine updates whenever
// the best chain changes.
type BlockStore interface {
	// Put persists sb, keyed by its header hash. Re-putting a
	// byte-identical record is a no-op; putting a different record for
	// an already-stored hash fails with ErrConflict.
	Put(sb *StoredBlock) er.R

	// Get fetches the StoredBlock for hash, or ErrHeaderNotFound.
	Get(hash *chainhash.Hash) (*StoredBlock, er.R)

	// Has reports whether hash is already stored.
	Has(hash *chainhash.Hash) (bool, er.R)

	// SetChainTip atomically records hash as the current best chain
	// tip. The caller must have already Put the corresponding
	// StoredBlock.
	SetChainTip(hash *chainhash.Hash) er.R

	// ChainTip returns the StoredBlock the head pointer currently
	// references, or ErrNoChainTip if none has been set.
	ChainTip() (*StoredBlock, er.R)

	// Close releases any resources (file handles, mmaps) held by the
	// store.
	Close() er.R
}
