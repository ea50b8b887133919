package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MaxFilterAddDataSize is the maximum size in bytes of a data element
// added to an existing bloom filter.
const MaxFilterAddDataSize = 520

// MsgFilterAdd implements the Message interface and adds a single data
// element (typically a new address' script) to a peer's already-loaded
// bloom filter without requiring a full filterload round trip.
type MsgFilterAdd struct {
	Data []byte
}

func (m *MsgFilterAdd) BtcDecode(r io.Reader, pver uint32) er.R {
	data, err := ReadVarBytes(r, pver, MaxFilterAddDataSize, "filteradd data")
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}

func (m *MsgFilterAdd) BtcEncode(w io.Writer, pver uint32) er.R {
	if len(m.Data) > MaxFilterAddDataSize {
		return messageError("MsgFilterAdd.BtcEncode", "filteradd data too large")
	}
	return WriteVarBytes(w, pver, m.Data)
}

func (m *MsgFilterAdd) Command() string { return CmdFilterAdd }

func (m *MsgFilterAdd) MaxPayloadLength(pver uint32) uint32 {
	return uint32(VarIntSerializeSize(MaxFilterAddDataSize)) + MaxFilterAddDataSize
}

// NewMsgFilterAdd returns a new filteradd message.
func NewMsgFilterAdd(data []byte) *MsgFilterAdd { return &MsgFilterAdd{Data: data} }
