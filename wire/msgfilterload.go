package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
)

// MaxFilterLoadFilterSize is the maximum size in bytes a filter may be.
const MaxFilterLoadFilterSize = 36000

// MaxFilterLoadHashFuncs is the maximum number of hash functions a
// filter may specify.
const MaxFilterLoadHashFuncs = 50

// BloomUpdateType specifies how outputs matching a filter are added to
// it, per BIP 37.
type BloomUpdateType uint8

const (
	// BloomUpdateNone never updates the filter with outpoints.
	BloomUpdateNone BloomUpdateType = 0

	// BloomUpdateAll always updates the filter with outpoints.
	BloomUpdateAll BloomUpdateType = 1

	// BloomUpdateP2PubkeyOnly only updates the filter with outpoints
	// for pay-to-pubkey and multisig outputs.
	BloomUpdateP2PubkeyOnly BloomUpdateType = 2
)

// MsgFilterLoad implements the Message interface and replaces the
// bloom filter a peer uses to decide which transactions to relay to us.
type MsgFilterLoad struct {
	Filter    []byte
	HashFuncs uint32
	Tweak     uint32
	Flags     BloomUpdateType
}

func (m *MsgFilterLoad) BtcDecode(r io.Reader, pver uint32) er.R {
	filter, err := ReadVarBytes(r, pver, MaxFilterLoadFilterSize, "filterload filter size")
	if err != nil {
		return err
	}
	m.Filter = filter

	if err := readElement(r, &m.HashFuncs); err != nil {
		return err
	}
	if m.HashFuncs > MaxFilterLoadHashFuncs {
		return messageError("MsgFilterLoad.BtcDecode", "too many filter hash functions")
	}
	if err := readElement(r, &m.Tweak); err != nil {
		return err
	}
	var flags uint8
	if err := readByte(r, &flags); err != nil {
		return err
	}
	m.Flags = BloomUpdateType(flags)
	return nil
}

func (m *MsgFilterLoad) BtcEncode(w io.Writer, pver uint32) er.R {
	size := len(m.Filter)
	if size > MaxFilterLoadFilterSize {
		return messageError("MsgFilterLoad.BtcEncode", "filterload filter size too large")
	}
	if m.HashFuncs > MaxFilterLoadHashFuncs {
		return messageError("MsgFilterLoad.BtcEncode", "too many filter hash functions")
	}

	if err := WriteVarBytes(w, pver, m.Filter); err != nil {
		return err
	}
	if err := writeElement(w, m.HashFuncs); err != nil {
		return err
	}
	if err := writeElement(w, m.Tweak); err != nil {
		return err
	}
	_, errr := w.Write([]byte{byte(m.Flags)})
	return er.E(errr)
}

func (m *MsgFilterLoad) Command() string { return CmdFilterLoad }

func (m *MsgFilterLoad) MaxPayloadLength(pver uint32) uint32 {
	return uint32(VarIntSerializeSize(MaxFilterLoadFilterSize)) + MaxFilterLoadFilterSize + 4 + 4 + 1
}

// NewMsgFilterLoad returns a new filterload message.
func NewMsgFilterLoad(filter []byte, hashFuncs, tweak uint32, flags BloomUpdateType) *MsgFilterLoad {
	return &MsgFilterLoad{Filter: filter, HashFuncs: hashFuncs, Tweak: tweak, Flags: flags}
}

func readByte(r io.Reader, b *uint8) er.R {
	var buf [1]byte
	if _, errr := io.ReadFull(r, buf[:]); errr != nil {
		return er.E(errr)
	}
	*b = buf[0]
	return nil
}
