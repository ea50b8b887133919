package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// BlockHeaderLen is the number of bytes in a serialized block header:
// 4 version + 32 prevBlock + 32 merkleRoot + 4 time + 4 bits + 4 nonce.
const BlockHeaderLen = 80

// BlockHeader holds the chain-identifying fields of a Litecoin block,
// independent of its transactions. This is the unit stored and validated
// by the header chain.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the double sha256 of the serialized header, which is
// the block's identifying hash.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = writeBlockHeader(&buf, h)
	return chainhash.DoubleHashH(buf.Bytes())
}

// BtcDecode decodes r, storing the result into h.
func (h *BlockHeader) BtcDecode(r io.Reader, pver uint32) er.R {
	return readBlockHeader(r, h)
}

// BtcEncode encodes h to w.
func (h *BlockHeader) BtcEncode(w io.Writer, pver uint32) er.R {
	return writeBlockHeader(w, h)
}

// Command returns the type of message this is; block headers are not
// framed as a standalone network message (they only appear nested inside
// a headers or block message), but Command is implemented to satisfy
// debugging/logging call sites uniformly.
func (h *BlockHeader) Command() string { return "" }

// MaxPayloadLength returns the number of bytes a serialized block header
// takes up.
func (h *BlockHeader) MaxPayloadLength(pver uint32) uint32 { return BlockHeaderLen }

// NewBlockHeader returns a new BlockHeader using the provided fields.
func NewBlockHeader(version int32, prevHash, merkleRootHash *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {
	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

func readBlockHeader(r io.Reader, bh *BlockHeader) er.R {
	if err := readElement(r, &bh.Version); err != nil {
		return err
	}
	if err := readElement(r, &bh.PrevBlock); err != nil {
		return err
	}
	if err := readElement(r, &bh.MerkleRoot); err != nil {
		return err
	}
	var ts uint32
	if err := readElement(r, &ts); err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(ts), 0)
	if err := readElement(r, &bh.Bits); err != nil {
		return err
	}
	return readElement(r, &bh.Nonce)
}

func writeBlockHeader(w io.Writer, bh *BlockHeader) er.R {
	if err := writeElement(w, bh.Version); err != nil {
		return err
	}
	if err := writeElement(w, bh.PrevBlock); err != nil {
		return err
	}
	if err := writeElement(w, bh.MerkleRoot); err != nil {
		return err
	}
	if err := writeElement(w, uint32(bh.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeElement(w, bh.Bits); err != nil {
		return err
	}
	return writeElement(w, bh.Nonce)
}
