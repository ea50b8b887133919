package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// MaxUserAgentLen is the maximum allowed length for the user agent field
// in a version message.
const MaxUserAgentLen = 256

// DefaultUserAgent is the user agent this module advertises absent an
// application override.
const DefaultUserAgent = "/ltcspv:0.1.0/"

// MsgVersion implements the Message interface and represents the first
// message exchanged during the handshake: each side advertises its
// protocol version, services, perceived time, and chain height.
type MsgVersion struct {
	ProtocolVersion int32
	Services        protocol.ServiceFlag
	Timestamp       int64
	AddrYou         NetAddress
	AddrMe          NetAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
	DisableRelayTx  bool
}

// NewMsgVersion returns a new version message using the provided
// parameters and sensible defaults for the remaining fields.
func NewMsgVersion(me, you *NetAddress, nonce uint64, lastBlock int32) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: int32(protocol.ProtocolVersion),
		Services:        0,
		Timestamp:       0,
		AddrYou:         *you,
		AddrMe:          *me,
		Nonce:           nonce,
		UserAgent:       DefaultUserAgent,
		LastBlock:       lastBlock,
		DisableRelayTx:  false,
	}
}

// AddService adds a service to the message's Services field.
func (m *MsgVersion) AddService(service protocol.ServiceFlag) { m.Services |= service }

func (m *MsgVersion) BtcDecode(r io.Reader, pver uint32) er.R {
	if err := readElement(r, &m.ProtocolVersion); err != nil {
		return err
	}
	var svc uint64
	if err := readElement(r, &svc); err != nil {
		return err
	}
	m.Services = protocol.ServiceFlag(svc)
	if err := readElement(r, &m.Timestamp); err != nil {
		return err
	}
	if err := readNetAddress(r, pver, &m.AddrYou, false); err != nil {
		return err
	}

	// Protocol versions >= 106 added the rest of these fields, but all
	// peers supported since this module's minimum version do too, so
	// they are always present.
	if err := readNetAddress(r, pver, &m.AddrMe, false); err != nil {
		return err
	}
	if err := readElement(r, &m.Nonce); err != nil {
		return err
	}
	userAgent, err := ReadVarString(r, pver)
	if err != nil {
		return err
	}
	if len(userAgent) > MaxUserAgentLen {
		return messageError("MsgVersion.BtcDecode", "user agent too long")
	}
	m.UserAgent = userAgent

	if err := readElement(r, &m.LastBlock); err != nil {
		return err
	}

	if lr, ok := r.(interface{ Len() int }); ok {
		if lr.Len() > 0 {
			if err := readElement(r, &m.DisableRelayTx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MsgVersion) BtcEncode(w io.Writer, pver uint32) er.R {
	if err := writeElement(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := writeElement(w, uint64(m.Services)); err != nil {
		return err
	}
	if err := writeElement(w, m.Timestamp); err != nil {
		return err
	}
	if err := writeNetAddress(w, pver, &m.AddrYou, false); err != nil {
		return err
	}
	if err := writeNetAddress(w, pver, &m.AddrMe, false); err != nil {
		return err
	}
	if err := writeElement(w, m.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, pver, m.UserAgent); err != nil {
		return err
	}
	if err := writeElement(w, m.LastBlock); err != nil {
		return err
	}
	return writeElement(w, m.DisableRelayTx)
}

func (m *MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) MaxPayloadLength(pver uint32) uint32 {
	return uint32(4 + 8 + 8 + maxNetAddressPayload*2 + 8 + VarIntSerializeSize(MaxUserAgentLen) + MaxUserAgentLen + 4 + 1)
}
