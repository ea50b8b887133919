package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// MaxBlockLocatorsPerMsg is the maximum number of block locator hashes
// permitted per message.
const MaxBlockLocatorsPerMsg = 500

// BlockLocator is used to help locate a specific block, the chain tip at
// the time it was built, or the point of divergence between two chains.
// It is built with exponentially sparser hashes going back from a chain
// tip, down to the genesis block.
type BlockLocator []*chainhash.Hash

// MsgGetHeaders implements the Message interface and is used to request
// a list of block headers starting after the highest hash in BlockLocatorHashes
// that the recipient recognizes, continuing to HashStop (or 2000 headers,
// whichever comes first).
type MsgGetHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []*chainhash.Hash
	HashStop           chainhash.Hash
}

// AddBlockLocatorHash adds a new block locator hash to the message.
func (m *MsgGetHeaders) AddBlockLocatorHash(hash *chainhash.Hash) er.R {
	if len(m.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.AddBlockLocatorHash", "too many block locator hashes")
	}
	m.BlockLocatorHashes = append(m.BlockLocatorHashes, hash)
	return nil
}

func (m *MsgGetHeaders) BtcDecode(r io.Reader, pver uint32) er.R {
	if err := readElement(r, &m.ProtocolVersion); err != nil {
		return err
	}

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.BtcDecode", "too many block locator hashes")
	}

	locatorHashes := make([]chainhash.Hash, count)
	m.BlockLocatorHashes = make([]*chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		hash := &locatorHashes[i]
		if err := readElement(r, hash); err != nil {
			return err
		}
		m.BlockLocatorHashes = append(m.BlockLocatorHashes, hash)
	}

	return readElement(r, &m.HashStop)
}

func (m *MsgGetHeaders) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.BlockLocatorHashes)
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.BtcEncode", "too many block locator hashes")
	}

	if err := writeElement(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, pver, uint64(count)); err != nil {
		return err
	}
	for _, hash := range m.BlockLocatorHashes {
		if err := writeElement(w, hash); err != nil {
			return err
		}
	}
	return writeElement(w, &m.HashStop)
}

func (m *MsgGetHeaders) Command() string { return CmdGetHeaders }

func (m *MsgGetHeaders) MaxPayloadLength(pver uint32) uint32 {
	return 4 + uint32(VarIntSerializeSize(MaxBlockLocatorsPerMsg)) +
		(MaxBlockLocatorsPerMsg * chainhash.HashSize) + chainhash.HashSize
}

// NewMsgGetHeaders returns a new empty getheaders message.
func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{
		BlockLocatorHashes: make([]*chainhash.Hash, 0, MaxBlockLocatorsPerMsg),
	}
}
