package wire

import "io"
import "github.com/ltcsuite/ltcspv/er"

// MsgVerAck defines a message which is sent in response to a version
// message (MsgVersion) once negotiation is complete; it carries no
// payload.
type MsgVerAck struct{}

func (m *MsgVerAck) BtcDecode(r io.Reader, pver uint32) er.R { return nil }
func (m *MsgVerAck) BtcEncode(w io.Writer, pver uint32) er.R { return nil }
func (m *MsgVerAck) Command() string                         { return CmdVerAck }
func (m *MsgVerAck) MaxPayloadLength(pver uint32) uint32      { return 0 }

// NewMsgVerAck returns a new verack message.
func NewMsgVerAck() *MsgVerAck { return &MsgVerAck{} }
