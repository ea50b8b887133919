package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MaxAddrPerMsg is the maximum number of addresses permitted in a single
// addr message.
const MaxAddrPerMsg = 1000

// MsgAddr implements the Message interface and carries a list of known
// active peers on the network, used during discovery.
type MsgAddr struct {
	AddrList []*NetAddress
}

// AddAddress adds a known active peer to the message.
func (m *MsgAddr) AddAddress(na *NetAddress) er.R {
	if len(m.AddrList)+1 > MaxAddrPerMsg {
		return messageError("MsgAddr.AddAddress", "too many addresses")
	}
	m.AddrList = append(m.AddrList, na)
	return nil
}

func (m *MsgAddr) BtcDecode(r io.Reader, pver uint32) er.R {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > MaxAddrPerMsg {
		return messageError("MsgAddr.BtcDecode", "too many addresses for message")
	}

	addrList := make([]NetAddress, count)
	m.AddrList = make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		na := &addrList[i]
		if err := readNetAddress(r, pver, na, true); err != nil {
			return err
		}
		m.AddrList = append(m.AddrList, na)
	}
	return nil
}

func (m *MsgAddr) BtcEncode(w io.Writer, pver uint32) er.R {
	count := len(m.AddrList)
	if count > MaxAddrPerMsg {
		return messageError("MsgAddr.BtcEncode", "too many addresses for message")
	}
	if err := WriteVarInt(w, pver, uint64(count)); err != nil {
		return err
	}
	for _, na := range m.AddrList {
		if err := writeNetAddress(w, pver, na, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgAddr) Command() string { return CmdAddr }

func (m *MsgAddr) MaxPayloadLength(pver uint32) uint32 {
	return uint32(VarIntSerializeSize(MaxAddrPerMsg)) + MaxAddrPerMsg*(maxNetAddressPayload+4)
}

// NewMsgAddr returns a new empty addr message.
func NewMsgAddr() *MsgAddr { return &MsgAddr{AddrList: make([]*NetAddress, 0, MaxAddrPerMsg)} }
