package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgGetAddr implements the Message interface and is used to request a
// list of known active peers from a remote peer; it carries no payload.
type MsgGetAddr struct{}

func (m *MsgGetAddr) BtcDecode(r io.Reader, pver uint32) er.R { return nil }
func (m *MsgGetAddr) BtcEncode(w io.Writer, pver uint32) er.R { return nil }
func (m *MsgGetAddr) Command() string                         { return CmdGetAddr }
func (m *MsgGetAddr) MaxPayloadLength(pver uint32) uint32      { return 0 }

// NewMsgGetAddr returns a new getaddr message.
func NewMsgGetAddr() *MsgGetAddr { return &MsgGetAddr{} }
