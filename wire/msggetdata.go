package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MsgGetData implements the Message interface and is used to request
// transactions, blocks, or filtered blocks by inventory vector. It is
// typically built from the InvVects advertised by a prior inv message.
type MsgGetData struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (m *MsgGetData) AddInvVect(iv *InvVect) er.R {
	if len(m.InvList)+1 > MaxInvPerMsg {
		return messageError("MsgGetData.AddInvVect", "too many inv vectors")
	}
	m.InvList = append(m.InvList, iv)
	return nil
}

func (m *MsgGetData) BtcDecode(r io.Reader, pver uint32) er.R {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxInvPerMsg {
		return messageError("MsgGetData.BtcDecode", "too many inv vectors for message")
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

func (m *MsgGetData) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.InvList)
	if count > MaxInvPerMsg {
		return messageError("MsgGetData.BtcEncode", "too many inv vectors for message")
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

func (m *MsgGetData) Command() string { return CmdGetData }

func (m *MsgGetData) MaxPayloadLength(pver uint32) uint32 { return maxInvPayload }

// NewMsgGetData returns a new empty getdata message.
func NewMsgGetData() *MsgGetData {
	return &MsgGetData{InvList: make([]*InvVect, 0, defaultInvListAlloc)}
}
