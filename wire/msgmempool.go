package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgMemPool implements the Message interface and is used to request
// the list of transactions a peer currently holds in its mempool; the
// peer replies with an inv of matching txids (filtered through its copy
// of our bloom filter, if one is loaded).
type MsgMemPool struct{}

func (m *MsgMemPool) BtcDecode(r io.Reader, pver uint32) er.R { return nil }
func (m *MsgMemPool) BtcEncode(w io.Writer, pver uint32) er.R { return nil }
func (m *MsgMemPool) Command() string                         { return CmdMemPool }
func (m *MsgMemPool) MaxPayloadLength(pver uint32) uint32      { return 0 }

// NewMsgMemPool returns a new mempool message.
func NewMsgMemPool() *MsgMemPool { return &MsgMemPool{} }
