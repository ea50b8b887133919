package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgNotFound implements the Message interface and is sent in response
// to a getdata request when one or more of the requested items was not
// available (e.g. a transaction fell out of the mempool).
type MsgNotFound struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (m *MsgNotFound) AddInvVect(iv *InvVect) er.R {
	if len(m.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgNotFound.AddInvVect", "too many inv vectors")
	}
	m.InvList = append(m.InvList, iv)
	return nil
}

func (m *MsgNotFound) BtcDecode(r io.Reader, pver uint32) er.R {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxInvPerMsg {
		return messageError("MsgNotFound.BtcDecode", "too many inv vectors for message")
	}

	invList := make([]InvVect, count)
	m.InvList = make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := &invList[i]
		if err := readInvVect(r, pver, iv); err != nil {
			return err
		}
		m.InvList = append(m.InvList, iv)
	}
	return nil
}

func (m *MsgNotFound) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.InvList)
	if count > MaxInvPerMsg {
		return messageError("MsgNotFound.BtcEncode", "too many inv vectors for message")
	}
	if err := WriteVarInt(w, pver, uint64(count)); err != nil {
		return err
	}
	for _, iv := range m.InvList {
		if err := writeInvVect(w, pver, iv); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgNotFound) Command() string { return CmdNotFound }

func (m *MsgNotFound) MaxPayloadLength(pver uint32) uint32 { return maxInvPayload }

// NewMsgNotFound returns a new empty notfound message.
func NewMsgNotFound() *MsgNotFound {
	return &MsgNotFound{InvList: make([]*InvVect, 0, defaultInvListAlloc)}
}
