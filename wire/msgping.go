package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgPing implements the Message interface and is used to confirm a
// connection is still valid. A peer which doesn't answer within the
// liveness timeout is considered dead.
type MsgPing struct {
	Nonce uint64
}

func (m *MsgPing) BtcDecode(r io.Reader, pver uint32) er.R { return readElement(r, &m.Nonce) }
func (m *MsgPing) BtcEncode(w io.Writer, pver uint32) er.R { return writeElement(w, m.Nonce) }
func (m *MsgPing) Command() string                         { return CmdPing }
func (m *MsgPing) MaxPayloadLength(pver uint32) uint32      { return 8 }

// NewMsgPing returns a new ping message with the given nonce.
func NewMsgPing(nonce uint64) *MsgPing { return &MsgPing{Nonce: nonce} }
