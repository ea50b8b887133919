package wire

import (
	"io"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
)

// InvType represents the type of inventory vector.
type InvType uint32

// These constants define the various supported inventory vector types.
const (
	InvTypeError          InvType = 0
	InvTypeTx             InvType = 1
	InvTypeBlock          InvType = 2
	InvTypeFilteredBlock  InvType = 3
	InvTypeWitnessBlock   InvType = InvTypeBlock | 1<<30
	InvTypeWitnessTx      InvType = InvTypeTx | 1<<30
)

var ivStrings = map[InvType]string{
	InvTypeError:         "ERROR",
	InvTypeTx:            "MSG_TX",
	InvTypeBlock:         "MSG_BLOCK",
	InvTypeFilteredBlock: "MSG_FILTERED_BLOCK",
	InvTypeWitnessBlock:  "MSG_WITNESS_BLOCK",
	InvTypeWitnessTx:     "MSG_WITNESS_TX",
}

// String returns the InvType in human-readable form.
func (invtype InvType) String() string {
	if s, ok := ivStrings[invtype]; ok {
		return s
	}
	return "Unknown InvType"
}

// InvVect defines an inventory vector, which is used to describe data as
// specified by the Type field, identified by the Hash field.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// NewInvVect returns a new InvVect using the provided type and hash.
func NewInvVect(typ InvType, hash *chainhash.Hash) *InvVect {
	return &InvVect{Type: typ, Hash: *hash}
}

func readInvVect(r io.Reader, pver uint32, iv *InvVect) er.R {
	var t uint32
	if err := readElement(r, &t); err != nil {
		return err
	}
	iv.Type = InvType(t)
	return readElement(r, &iv.Hash)
}

func writeInvVect(w io.Writer, pver uint32, iv *InvVect) er.R {
	if err := writeElement(w, uint32(iv.Type)); err != nil {
		return err
	}
	return writeElement(w, iv.Hash)
}
