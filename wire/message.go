package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// MessageHeaderSize is the number of bytes in a message header: 4 byte
// magic, 12 byte command, 4 byte payload length, 4 byte checksum.
const MessageHeaderSize = 24

// CommandSize is the fixed size in bytes of a message command field.
const CommandSize = 12

// Commands used in the message headers this codec understands. Matching
// the wire names keeps this package's Message.Command() output
// byte-for-byte compatible with what a peer sends.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdGetAddr     = "getaddr"
	CmdAddr        = "addr"
	CmdGetHeaders  = "getheaders"
	CmdHeaders     = "headers"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdNotFound    = "notfound"
	CmdTx          = "tx"
	CmdBlock       = "block"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdMemPool     = "mempool"
	CmdFilterLoad  = "filterload"
	CmdFilterAdd   = "filteradd"
	CmdFilterClear = "filterclear"
	CmdMerkleBlock = "merkleblock"
	CmdReject      = "reject"
)

// Message is the interface every wire message type implements. Codecs
// decode a payload into a concrete type and re-encode it the same way,
// mirroring the neutrino cfheaders message pattern this package is
// grounded on.
type Message interface {
	BtcDecode(r io.Reader, pver uint32) er.R
	BtcEncode(w io.Writer, pver uint32) er.R
	Command() string
	MaxPayloadLength(pver uint32) uint32
}

// messageHeader holds the decoded framing fields of a message read off
// the wire, before its payload has been parsed into a concrete Message.
type messageHeader struct {
	magic    protocol.BitcoinNet
	command  string
	length   uint32
	checksum [4]byte
}

// makeEmptyMessage returns a zero-value Message for the given command
// string, or an error if the command is not recognized.
func makeEmptyMessage(command string) (Message, er.R) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdNotFound:
		return &MsgNotFound{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdMemPool:
		return &MsgMemPool{}, nil
	case CmdFilterLoad:
		return &MsgFilterLoad{}, nil
	case CmdFilterAdd:
		return &MsgFilterAdd{}, nil
	case CmdFilterClear:
		return &MsgFilterClear{}, nil
	case CmdMerkleBlock:
		return &MsgMerkleBlock{}, nil
	case CmdReject:
		return &MsgReject{}, nil
	default:
		return nil, messageError("makeEmptyMessage", "unhandled command ["+command+"]")
	}
}

// readMessageHeader reads a message header off r. If the first four bytes
// read don't match btcnet, it resyncs by discarding one byte at a time and
// sliding the header window forward until the leading four bytes match the
// expected magic (or r hits EOF) — a peer that drops or corrupts a byte
// mid-stream must not wedge the connection on a phantom oversized payload.
func readMessageHeader(r io.Reader, btcnet protocol.BitcoinNet) (int, *messageHeader, er.R) {
	var headerBytes [MessageHeaderSize]byte
	n, errr := io.ReadFull(r, headerBytes[:])
	if errr != nil {
		return n, nil, er.E(errr)
	}

	var want [4]byte
	littleEndian.PutUint32(want[:], uint32(btcnet))
	for !bytes.Equal(headerBytes[0:4], want[:]) {
		copy(headerBytes[0:MessageHeaderSize-1], headerBytes[1:MessageHeaderSize])
		if _, errr := io.ReadFull(r, headerBytes[MessageHeaderSize-1:]); errr != nil {
			return n, nil, er.E(errr)
		}
		n++
	}

	hdr := messageHeader{}
	hdr.magic = protocol.BitcoinNet(littleEndian.Uint32(headerBytes[0:4]))
	command := headerBytes[4:16]
	end := bytes.IndexByte(command, 0)
	if end == -1 {
		end = len(command)
	}
	hdr.command = string(command[:end])
	hdr.length = littleEndian.Uint32(headerBytes[16:20])
	copy(hdr.checksum[:], headerBytes[20:24])
	return n, &hdr, nil
}

// discardInput reads n bytes from r in fixed-size chunks and discards the
// data read. This is used to drain the remaining bytes of an oversized
// payload so the connection stays byte-aligned for the next message.
func discardInput(r io.Reader, n uint32) {
	maxSize := uint32(10 * 1024)
	numReads := n / maxSize
	bytesRemaining := n % maxSize
	buf := make([]byte, maxSize)
	for i := uint32(0); i < numReads; i++ {
		io.ReadFull(r, buf)
	}
	if bytesRemaining > 0 {
		io.ReadFull(r, buf[:bytesRemaining])
	}
}

// WriteMessage writes a message to w, framing it with the magic, command,
// length, and checksum fields the wire protocol requires.
func WriteMessage(w io.Writer, msg Message, pver uint32, btcnet protocol.BitcoinNet) er.R {
	var bw bytes.Buffer
	if err := msg.BtcEncode(&bw, pver); err != nil {
		return err
	}
	payload := bw.Bytes()
	lenp := len(payload)

	cmd := msg.Command()
	if len(cmd) > CommandSize {
		return messageError("WriteMessage", "command ["+cmd+"] is too long")
	}

	mpl := msg.MaxPayloadLength(pver)
	if uint32(lenp) > mpl {
		return messageError("WriteMessage", "message payload is too large")
	}

	var hw bytes.Buffer
	binary.Write(&hw, littleEndian, uint32(btcnet))

	var command [CommandSize]byte
	copy(command[:], cmd)
	hw.Write(command[:])

	binary.Write(&hw, littleEndian, uint32(lenp))

	chksum := chainDoubleHashFirst4(payload)
	hw.Write(chksum[:])

	if _, errr := w.Write(hw.Bytes()); errr != nil {
		return er.E(errr)
	}
	if _, errr := w.Write(payload); errr != nil {
		return er.E(errr)
	}
	return nil
}

// ReadMessage reads, validates, and parses the next Message from r.
func ReadMessage(r io.Reader, pver uint32, btcnet protocol.BitcoinNet) (Message, []byte, er.R) {
	_, hdr, err := readMessageHeader(r, btcnet)
	if err != nil {
		return nil, nil, err
	}

	if !validCommand(hdr.command) {
		discardInput(r, hdr.length)
		return nil, nil, messageError("ReadMessage", "invalid command ["+hdr.command+"]")
	}

	if hdr.length > MaxMessagePayload {
		return nil, nil, messageError("ReadMessage", "message payload is too large")
	}

	msg, err := makeEmptyMessage(hdr.command)
	if err != nil {
		discardInput(r, hdr.length)
		return nil, nil, err
	}

	mpl := msg.MaxPayloadLength(pver)
	if hdr.length > mpl {
		discardInput(r, hdr.length)
		return nil, nil, messageError("ReadMessage", "payload exceeds max length for ["+hdr.command+"]")
	}

	payload := make([]byte, hdr.length)
	if _, errr := io.ReadFull(r, payload); errr != nil {
		return nil, nil, er.E(errr)
	}

	checksum := chainDoubleHashFirst4(payload)
	if checksum != hdr.checksum {
		return nil, nil, messageError("ReadMessage", "payload checksum failed")
	}

	if err := msg.BtcDecode(bytes.NewReader(payload), pver); err != nil {
		return nil, nil, err
	}

	return msg, payload, nil
}

func validCommand(cmd string) bool {
	_, err := makeEmptyMessage(cmd)
	return err == nil
}
