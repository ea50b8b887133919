package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MaxInvPerMsg is the maximum number of inventory vectors permitted in a
// single inv, getdata, or notfound message.
const MaxInvPerMsg = 50000

// maxInvPayload is the maximum payload size, in bytes, for an inventory
// message.
const maxInvPayload = 9 + MaxInvPerMsg*36

// MsgInv implements the Message interface and is used to advertise data
// known to the sending peer (new transactions or blocks).
type MsgInv struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (m *MsgInv) AddInvVect(iv *InvVect) er.R {
	if len(m.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgInv.AddInvVect", "too many inv vectors")
	}
	m.InvList = append(m.InvList, iv)
	return nil
}

func (m *MsgInv) BtcDecode(r io.Reader, pver uint32) er.R {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxInvPerMsg {
		return messageError("MsgInv.BtcDecode", "too many inv vectors for message")
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

func (m *MsgInv) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.InvList)
	if count > MaxInvPerMsg {
		return messageError("MsgInv.BtcEncode", "too many inv vectors for message")
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

func (m *MsgInv) Command() string { return CmdInv }

func (m *MsgInv) MaxPayloadLength(pver uint32) uint32 { return maxInvPayload }

// NewMsgInv returns a new empty inv message.
func NewMsgInv() *MsgInv { return &MsgInv{InvList: make([]*InvVect, 0, defaultInvListAlloc)} }

const defaultInvListAlloc = 1000
