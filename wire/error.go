package wire

import (
	"fmt"

	"github.com/ltcsuite/ltcspv/er"
)

// MessageError describes an issue with a message: wrong network magic, an
// unrecognized command, a checksum mismatch, or a payload that exceeds the
// max size for its type.
var MessageError *er.ErrorCode = er.GenericErrorType.Code("wire.MessageError")

// messageError creates an error for the given function and description.
func messageError(f string, desc string) er.R {
	return MessageError.New(fmt.Sprintf("%s: %s", f, desc), nil)
}
