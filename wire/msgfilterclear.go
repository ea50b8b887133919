package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgFilterClear implements the Message interface and removes a
// previously loaded bloom filter, reverting the peer to relaying every
// transaction it sees (equivalent to not having requested filtering).
type MsgFilterClear struct{}

func (m *MsgFilterClear) BtcDecode(r io.Reader, pver uint32) er.R { return nil }
func (m *MsgFilterClear) BtcEncode(w io.Writer, pver uint32) er.R { return nil }
func (m *MsgFilterClear) Command() string                         { return CmdFilterClear }
func (m *MsgFilterClear) MaxPayloadLength(pver uint32) uint32      { return 0 }

// NewMsgFilterClear returns a new filterclear message.
func NewMsgFilterClear() *MsgFilterClear { return &MsgFilterClear{} }
