package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MaxBlockHeadersPerMsg is the maximum number of block headers that can
// be in a single headers message.
const MaxBlockHeadersPerMsg = 2000

// MsgHeaders implements the Message interface and is used to deliver
// block headers in response to a getheaders message.
type MsgHeaders struct {
	Headers []*BlockHeader
}

// AddBlockHeader adds a new block header to the message.
func (m *MsgHeaders) AddBlockHeader(bh *BlockHeader) er.R {
	if len(m.Headers)+1 > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.AddBlockHeader", "too many block headers")
	}
	m.Headers = append(m.Headers, bh)
	return nil
}

func (m *MsgHeaders) BtcDecode(r io.Reader, pver uint32) er.R {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.BtcDecode", "too many block headers for message")
	}

	headers := make([]BlockHeader, count)
	m.Headers = make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		bh := &headers[i]
		if err := readBlockHeader(r, bh); err != nil {
			return err
		}

		// Each header is followed by a transaction count, which is
		// always zero in a headers message since headers carry no
		// transactions; read and validate it but discard the value.
		txCount, err := ReadVarInt(r, pver)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return messageError("MsgHeaders.BtcDecode", "header claims non-zero transaction count")
		}

		m.Headers = append(m.Headers, bh)
	}
	return nil
}

func (m *MsgHeaders) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.Headers)
	if count > MaxBlockHeadersPerMsg {
		return messageError("MsgHeaders.BtcEncode", "too many block headers for message")
	}

	if err := WriteVarInt(w, pver, uint64(count)); err != nil {
		return err
	}
	for _, bh := range m.Headers {
		if err := writeBlockHeader(w, bh); err != nil {
			return err
		}
		if err := WriteVarInt(w, pver, 0); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgHeaders) Command() string { return CmdHeaders }

func (m *MsgHeaders) MaxPayloadLength(pver uint32) uint32 {
	return uint32(VarIntSerializeSize(MaxBlockHeadersPerMsg)) +
		MaxBlockHeadersPerMsg*(BlockHeaderLen+1)
}

// NewMsgHeaders returns a new empty headers message.
func NewMsgHeaders() *MsgHeaders {
	return &MsgHeaders{Headers: make([]*BlockHeader, 0, MaxBlockHeadersPerMsg)}
}
