package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgPong implements the Message interface and is the reply to a
// MsgPing, echoing back its nonce so the sender can confirm liveness and
// measure round-trip time.
type MsgPong struct {
	Nonce uint64
}

func (m *MsgPong) BtcDecode(r io.Reader, pver uint32) er.R { return readElement(r, &m.Nonce) }
func (m *MsgPong) BtcEncode(w io.Writer, pver uint32) er.R { return writeElement(w, m.Nonce) }
func (m *MsgPong) Command() string                         { return CmdPong }
func (m *MsgPong) MaxPayloadLength(pver uint32) uint32      { return 8 }

// NewMsgPong returns a new pong message echoing the given nonce.
func NewMsgPong(nonce uint64) *MsgPong { return &MsgPong{Nonce: nonce} }
