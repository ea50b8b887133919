package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// MsgMerkleBlock implements the Message interface and is sent by a peer
// instead of a full block when it serves a filtered block: the header,
// a partial merkle tree proving which transactions matched the bloom
// filter, and the matched transactions' hashes.
type MsgMerkleBlock struct {
	Header       BlockHeader
	Transactions uint32
	Hashes       []*chainhash.Hash
	Flags        []byte
}

func (m *MsgMerkleBlock) BtcDecode(r io.Reader, pver uint32) er.R {
	if err := readBlockHeader(r, &m.Header); err != nil {
		return err
	}
	if err := readElement(r, &m.Transactions); err != nil {
		return err
	}

	hashCount, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	hashes := make([]chainhash.Hash, hashCount)
	m.Hashes = make([]*chainhash.Hash, 0, hashCount)
	for i := uint64(0); i < hashCount; i++ {
		h := &hashes[i]
		if err := readElement(r, h); err != nil {
			return err
		}
		m.Hashes = append(m.Hashes, h)
	}

	flags, err := ReadVarBytes(r, pver, MaxMessagePayload, "merkleblock flags")
	if err != nil {
		return err
	}
	m.Flags = flags
	return nil
}

func (m *MsgMerkleBlock) BtcEncode(w io.Writer, pver uint32) er.R {
	if err := writeBlockHeader(w, &m.Header); err != nil {
		return err
	}
	if err := writeElement(w, m.Transactions); err != nil {
		return err
	}

	if err := WriteVarInt(w, pver, uint64(len(m.Hashes))); err != nil {
		return err
	}
	for _, h := range m.Hashes {
		if err := writeElement(w, h); err != nil {
			return err
		}
	}

	return WriteVarBytes(w, pver, m.Flags)
}

func (m *MsgMerkleBlock) Command() string { return CmdMerkleBlock }

func (m *MsgMerkleBlock) MaxPayloadLength(pver uint32) uint32 { return MaxMessagePayload }

// NewMsgMerkleBlock returns a new empty merkleblock message using the
// provided header.
func NewMsgMerkleBlock(header *BlockHeader) *MsgMerkleBlock {
	return &MsgMerkleBlock{Header: *header}
}
