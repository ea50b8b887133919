package wire

import (
	"bytes"
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// MaxTxInPerMessage and MaxTxOutPerMessage bound the input/output counts
// a single transaction may carry, derived from the 10 MB message payload
// cap divided by the smallest possible encoding of each.
const (
	MaxTxInPerMessage  = (MaxMessagePayload / 41) + 1
	MaxTxOutPerMessage = (MaxMessagePayload / 9) + 1
)

// witnessMarkerFlag is the two-byte sequence (0x00, 0x01) a segwit
// transaction serializes immediately after its version field, in place
// of the legacy input count, to signal that witness data follows the
// outputs.
const witnessMarkerFlag = 0x01

// OutPoint defines a reference to a previous transaction output, which
// is what an input spends.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new OutPoint.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// TxIn defines a transaction input, spending a previous output via
// SignatureScript (and optionally Witness, for segwit inputs).
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          [][]byte
	Sequence         uint32
}

// TxOut defines a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// MsgTx implements the Message interface and represents a Litecoin
// transaction. The chain engine only consumes its Hash() and the
// outpoints its inputs spend; the rest is retained for relay and for
// computing the txid faithfully.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// TxHash generates the double sha256 hash of the transaction's
// non-witness serialization, which is its canonical txid.
func (m *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = m.serialize(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// HasWitness reports whether any input carries witness data.
func (m *MsgTx) HasWitness() bool {
	for _, txIn := range m.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

func (m *MsgTx) BtcDecode(r io.Reader, pver uint32) er.R {
	if err := readElement(r, &m.Version); err != nil {
		return err
	}

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}

	var flag [1]byte
	hasWitness := false
	if count == 0 {
		// Zero inputs with more data left signals the segwit marker:
		// the real input count follows a one-byte flag.
		if _, errr := io.ReadFull(r, flag[:]); errr != nil {
			return er.E(errr)
		}
		if flag[0] != witnessMarkerFlag {
			return messageError("MsgTx.BtcDecode", "witness flag byte must be 0x01")
		}
		hasWitness = true
		count, err = ReadVarInt(r, pver)
		if err != nil {
			return err
		}
	}
	if count > uint64(MaxTxInPerMessage) {
		return messageError("MsgTx.BtcDecode", "too many transaction inputs")
	}

	txIns := make([]TxIn, count)
	m.TxIn = make([]*TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		ti := &txIns[i]
		if err := readTxIn(r, pver, ti); err != nil {
			return err
		}
		m.TxIn = append(m.TxIn, ti)
	}

	outCount, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if outCount > uint64(MaxTxOutPerMessage) {
		return messageError("MsgTx.BtcDecode", "too many transaction outputs")
	}
	txOuts := make([]TxOut, outCount)
	m.TxOut = make([]*TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		to := &txOuts[i]
		if err := readTxOut(r, pver, to); err != nil {
			return err
		}
		m.TxOut = append(m.TxOut, to)
	}

	if hasWitness {
		for _, ti := range m.TxIn {
			wCount, err := ReadVarInt(r, pver)
			if err != nil {
				return err
			}
			witness := make([][]byte, wCount)
			for j := uint64(0); j < wCount; j++ {
				item, err := ReadVarBytes(r, pver, MaxMessagePayload, "witness item")
				if err != nil {
					return err
				}
				witness[j] = item
			}
			ti.Witness = witness
		}
	}

	return readElement(r, &m.LockTime)
}

func (m *MsgTx) BtcEncode(w io.Writer, pver uint32) er.R {
	return m.serialize(w, m.HasWitness())
}

func (m *MsgTx) serialize(w io.Writer, witness bool) er.R {
	if err := writeElement(w, m.Version); err != nil {
		return err
	}

	if witness {
		if err := WriteVarInt(w, 0, 0); err != nil {
			return err
		}
		if _, errr := w.Write([]byte{witnessMarkerFlag}); errr != nil {
			return er.E(errr)
		}
	}

	if err := WriteVarInt(w, 0, uint64(len(m.TxIn))); err != nil {
		return err
	}
	for _, ti := range m.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, 0, uint64(len(m.TxOut))); err != nil {
		return err
	}
	for _, to := range m.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}

	if witness {
		for _, ti := range m.TxIn {
			if err := WriteVarInt(w, 0, uint64(len(ti.Witness))); err != nil {
				return err
			}
			for _, item := range ti.Witness {
				if err := WriteVarBytes(w, 0, item); err != nil {
					return err
				}
			}
		}
	}

	return writeElement(w, m.LockTime)
}

func (m *MsgTx) Command() string { return CmdTx }

func (m *MsgTx) MaxPayloadLength(pver uint32) uint32 { return MaxMessagePayload }

// NewMsgTx returns a new empty transaction message.
func NewMsgTx(version int32) *MsgTx { return &MsgTx{Version: version} }

func readTxIn(r io.Reader, pver uint32, ti *TxIn) er.R {
	if err := readElement(r, &ti.PreviousOutPoint.Hash); err != nil {
		return err
	}
	if err := readElement(r, &ti.PreviousOutPoint.Index); err != nil {
		return err
	}
	sigScript, err := ReadVarBytes(r, pver, MaxMessagePayload, "signature script")
	if err != nil {
		return err
	}
	ti.SignatureScript = sigScript
	return readElement(r, &ti.Sequence)
}

func writeTxIn(w io.Writer, ti *TxIn) er.R {
	if err := writeElement(w, ti.PreviousOutPoint.Hash); err != nil {
		return err
	}
	if err := writeElement(w, ti.PreviousOutPoint.Index); err != nil {
		return err
	}
	if err := WriteVarBytes(w, 0, ti.SignatureScript); err != nil {
		return err
	}
	return writeElement(w, ti.Sequence)
}

func readTxOut(r io.Reader, pver uint32, to *TxOut) er.R {
	if err := readElement(r, &to.Value); err != nil {
		return err
	}
	pkScript, err := ReadVarBytes(r, pver, MaxMessagePayload, "public key script")
	if err != nil {
		return err
	}
	to.PkScript = pkScript
	return nil
}

func writeTxOut(w io.Writer, to *TxOut) er.R {
	if err := writeElement(w, to.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, 0, to.PkScript)
}
