package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// RejectCode represents a numeric value by which a remote peer
// identifies why a message was rejected.
type RejectCode uint8

// These constants define the various supported reject codes.
const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonStandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

var rejectCodeStrings = map[RejectCode]string{
	RejectMalformed:       "REJECT_MALFORMED",
	RejectInvalid:         "REJECT_INVALID",
	RejectObsolete:        "REJECT_OBSOLETE",
	RejectDuplicate:       "REJECT_DUPLICATE",
	RejectNonStandard:     "REJECT_NONSTANDARD",
	RejectDust:            "REJECT_DUST",
	RejectInsufficientFee: "REJECT_INSUFFICIENTFEE",
	RejectCheckpoint:      "REJECT_CHECKPOINT",
}

// String returns the RejectCode in human-readable form.
func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}
	return "Unknown RejectCode"
}

// MsgReject implements the Message interface and is sent by a peer when
// it rejects another message (most relevantly, a broadcast transaction
// this module sent).
type MsgReject struct {
	Cmd    string
	Code   RejectCode
	Reason string

	// Hash identifies the rejected transaction or block; only present
	// when Cmd is "tx" or "block".
	Hash chainhash.Hash
}

func (m *MsgReject) BtcDecode(r io.Reader, pver uint32) er.R {
	cmd, err := ReadVarString(r, pver)
	if err != nil {
		return err
	}
	m.Cmd = cmd

	var code uint8
	if err := readByte(r, &code); err != nil {
		return err
	}
	m.Code = RejectCode(code)

	reason, err := ReadVarString(r, pver)
	if err != nil {
		return err
	}
	m.Reason = reason

	if m.Cmd == CmdBlock || m.Cmd == CmdTx {
		if err := readElement(r, &m.Hash); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgReject) BtcEncode(w io.Writer, pver uint32) er.R {
	if err := WriteVarString(w, pver, m.Cmd); err != nil {
		return err
	}
	if _, errr := w.Write([]byte{byte(m.Code)}); errr != nil {
		return er.E(errr)
	}
	if err := WriteVarString(w, pver, m.Reason); err != nil {
		return err
	}
	if m.Cmd == CmdBlock || m.Cmd == CmdTx {
		if err := writeElement(w, m.Hash); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgReject) Command() string { return CmdReject }

func (m *MsgReject) MaxPayloadLength(pver uint32) uint32 { return MaxMessagePayload }

// NewMsgReject returns a new reject message.
func NewMsgReject(command string, code RejectCode, reason string) *MsgReject {
	return &MsgReject{Cmd: command, Code: code, Reason: reason}
}
