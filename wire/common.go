package wire

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// MaxVarIntPayload is the maximum payload size for a variable length
// integer.
const MaxVarIntPayload = 9

// MaxMessagePayload is the maximum bytes a message payload can be: 10 MB,
// per spec.md §4.1 ("script and witness sizes are bounded to 10 MB per
// message").
const MaxMessagePayload = 10 * 1024 * 1024

var littleEndian = binary.LittleEndian

// chainDoubleHashFirst4 returns the first 4 bytes of the double sha256 of
// b, used as the message checksum.
func chainDoubleHashFirst4(b []byte) [4]byte {
	h := chainhash.DoubleHashB(b)
	var out [4]byte
	copy(out[:], h[:4])
	return out
}

// readElement reads the next sequence of bytes from r using little endian
// byte order for multi-byte fields, except for Hash values, which are
// already stored on the wire in the order they're displayed (reversed from
// this module's internal chainhash.Hash byte order -- no reversal is
// required when decoding since both the internal representation and the
// wire representation are the same little-endian byte string).
func readElement(r io.Reader, element interface{}) er.R {
	switch e := element.(type) {
	case *int32:
		var b [4]byte
		if _, errr := io.ReadFull(r, b[:]); errr != nil {
			return er.E(errr)
		}
		*e = int32(littleEndian.Uint32(b[:]))
		return nil
	case *uint32:
		var b [4]byte
		if _, errr := io.ReadFull(r, b[:]); errr != nil {
			return er.E(errr)
		}
		*e = littleEndian.Uint32(b[:])
		return nil
	case *int64:
		var b [8]byte
		if _, errr := io.ReadFull(r, b[:]); errr != nil {
			return er.E(errr)
		}
		*e = int64(littleEndian.Uint64(b[:]))
		return nil
	case *uint64:
		var b [8]byte
		if _, errr := io.ReadFull(r, b[:]); errr != nil {
			return er.E(errr)
		}
		*e = littleEndian.Uint64(b[:])
		return nil
	case *bool:
		var b [1]byte
		if _, errr := io.ReadFull(r, b[:]); errr != nil {
			return er.E(errr)
		}
		*e = b[0] != 0
		return nil
	case *chainhash.Hash:
		_, errr := io.ReadFull(r, e[:])
		if errr != nil {
			return er.E(errr)
		}
		return nil
	case *[4]byte:
		_, errr := io.ReadFull(r, e[:])
		if errr != nil {
			return er.E(errr)
		}
		return nil
	}
	return er.Errorf("readElement: unhandled type %T", element)
}

func writeElement(w io.Writer, element interface{}) er.R {
	switch e := element.(type) {
	case int32:
		var b [4]byte
		littleEndian.PutUint32(b[:], uint32(e))
		_, errr := w.Write(b[:])
		return er.E(errr)
	case uint32:
		var b [4]byte
		littleEndian.PutUint32(b[:], e)
		_, errr := w.Write(b[:])
		return er.E(errr)
	case int64:
		var b [8]byte
		littleEndian.PutUint64(b[:], uint64(e))
		_, errr := w.Write(b[:])
		return er.E(errr)
	case uint64:
		var b [8]byte
		littleEndian.PutUint64(b[:], e)
		_, errr := w.Write(b[:])
		return er.E(errr)
	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, errr := w.Write(b[:])
		return er.E(errr)
	case chainhash.Hash:
		_, errr := w.Write(e[:])
		return er.E(errr)
	case *chainhash.Hash:
		_, errr := w.Write(e[:])
		return er.E(errr)
	case [4]byte:
		_, errr := w.Write(e[:])
		return er.E(errr)
	}
	return er.Errorf("writeElement: unhandled type %T", element)
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64, using the standard 1/3/5/9-byte prefix encoding: values under
// 0xfd encode as a single byte; 0xfd prefixes a uint16; 0xfe prefixes a
// uint32; 0xff prefixes a uint64.
func ReadVarInt(r io.Reader, pver uint32) (uint64, er.R) {
	var b [9]byte
	if _, errr := io.ReadFull(r, b[:1]); errr != nil {
		return 0, er.E(errr)
	}

	var rv uint64
	discriminant := b[0]
	switch discriminant {
	case 0xff:
		if _, errr := io.ReadFull(r, b[:8]); errr != nil {
			return 0, er.E(errr)
		}
		rv = littleEndian.Uint64(b[:8])

		// Minimal encoding check: the value must not fit in a smaller
		// representation, mirroring the canonical-encoding rule enforced
		// by the reference implementation.
		if rv <= math.MaxUint32 {
			return 0, messageError("ReadVarInt", "non-canonical varint")
		}
	case 0xfe:
		if _, errr := io.ReadFull(r, b[:4]); errr != nil {
			return 0, er.E(errr)
		}
		rv = uint64(littleEndian.Uint32(b[:4]))
		if rv <= math.MaxUint16 {
			return 0, messageError("ReadVarInt", "non-canonical varint")
		}
	case 0xfd:
		if _, errr := io.ReadFull(r, b[:2]); errr != nil {
			return 0, er.E(errr)
		}
		rv = uint64(littleEndian.Uint16(b[:2]))
		if rv < 0xfd {
			return 0, messageError("ReadVarInt", "non-canonical varint")
		}
	default:
		rv = uint64(discriminant)
	}
	return rv, nil
}

// WriteVarInt writes val to w using the minimal possible number of bytes
// for the standard variable length integer encoding.
func WriteVarInt(w io.Writer, pver uint32, val uint64) er.R {
	if val < 0xfd {
		_, errr := w.Write([]byte{byte(val)})
		return er.E(errr)
	}
	if val <= math.MaxUint16 {
		var b [3]byte
		b[0] = 0xfd
		littleEndian.PutUint16(b[1:], uint16(val))
		_, errr := w.Write(b[:])
		return er.E(errr)
	}
	if val <= math.MaxUint32 {
		var b [5]byte
		b[0] = 0xfe
		littleEndian.PutUint32(b[1:], uint32(val))
		_, errr := w.Write(b[:])
		return er.E(errr)
	}
	var b [9]byte
	b[0] = 0xff
	littleEndian.PutUint64(b[1:], val)
	_, errr := w.Write(b[:])
	return er.E(errr)
}

// VarIntSerializeSize returns the number of bytes it would take to
// serialize val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= math.MaxUint16 {
		return 3
	}
	if val <= math.MaxUint32 {
		return 5
	}
	return 9
}

// ReadVarString reads a variable length byte array preceded by a varint
// length and interprets it as a string.
func ReadVarString(r io.Reader, pver uint32) (string, er.R) {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return "", err
	}
	if count > uint64(MaxMessagePayload) {
		return "", messageError("ReadVarString", "variable length string too long")
	}
	buf := make([]byte, count)
	if _, errr := io.ReadFull(r, buf); errr != nil {
		return "", er.E(errr)
	}
	return string(buf), nil
}

// WriteVarString serializes str to w as a varint-length-prefixed byte
// array.
func WriteVarString(w io.Writer, pver uint32, str string) er.R {
	if err := WriteVarInt(w, pver, uint64(len(str))); err != nil {
		return err
	}
	_, errr := io.WriteString(w, str)
	return er.E(errr)
}

// ReadVarBytes reads a variable length byte array, guarding against the
// field exceeding maxAllowed, which callers set to the maximum a given
// message type permits (fieldName is used only for the error message).
func ReadVarBytes(r io.Reader, pver uint32, maxAllowed uint32, fieldName string) ([]byte, er.R) {
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	if count > uint64(maxAllowed) {
		return nil, messageError("ReadVarBytes", "'"+fieldName+"' exceeds max allowed size")
	}
	b := make([]byte, count)
	if _, errr := io.ReadFull(r, b); errr != nil {
		return nil, er.E(errr)
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w.
func WriteVarBytes(w io.Writer, pver uint32, bytes []byte) er.R {
	if err := WriteVarInt(w, pver, uint64(len(bytes))); err != nil {
		return err
	}
	_, errr := w.Write(bytes)
	return er.E(errr)
}
