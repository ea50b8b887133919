package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// MsgBlock implements the Message interface and represents a full block:
// a header plus its transactions. The chain engine consumes only the
// header; full blocks are decoded when a peer serves one in response to
// a filtered-block-eligible getdata (e.g. during rescans of pre-bloom
// history).
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// BlockHash returns the block identifying hash, which is purely a
// function of the header.
func (m *MsgBlock) BlockHash() chainhash.Hash { return m.Header.BlockHash() }

// AddTransaction adds a transaction to the message.
func (m *MsgBlock) AddTransaction(tx *MsgTx) { m.Transactions = append(m.Transactions, tx) }

func (m *MsgBlock) BtcDecode(r io.Reader, pver uint32) er.R {
	if err := readBlockHeader(r, &m.Header); err != nil {
		return err
	}

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > uint64(MaxTxInPerMessage) {
		return messageError("MsgBlock.BtcDecode", "too many transactions to fit into a block")
	}

	m.Transactions = make([]*MsgTx, 0, count)
	for i := uint64(0); i < count; i++ {
		tx := new(MsgTx)
		if err := tx.BtcDecode(r, pver); err != nil {
			return err
		}
		m.Transactions = append(m.Transactions, tx)
	}
	return nil
}

func (m *MsgBlock) BtcEncode(w io.Writer, pver uint32) er.R {
	if err := writeBlockHeader(w, &m.Header); err != nil {
		return err
	}
	if err := WriteVarInt(w, pver, uint64(len(m.Transactions))); err != nil {
		return err
	}
	for _, tx := range m.Transactions {
		if err := tx.BtcEncode(w, pver); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgBlock) Command() string { return CmdBlock }

func (m *MsgBlock) MaxPayloadLength(pver uint32) uint32 { return MaxMessagePayload }

// NewMsgBlock returns a new empty block message using the provided
// header.
func NewMsgBlock(header *BlockHeader) *MsgBlock { return &MsgBlock{Header: *header} }
