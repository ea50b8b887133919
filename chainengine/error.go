package chainengine

import (
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire"
)

// Err identifies a header-validation rule violation. Relocated here from
// the teacher's wire/ruleerror (a codec-adjacent package in the
// original, but validation of consensus rules is a chain-engine
// concern, not a wire-framing one) and trimmed to the header-only
// subset this engine can actually raise: the transaction, coinbase, and
// sigops-specific codes that package carried have no meaning for a
// header-only SPV engine and are dropped.
var Err = er.NewErrorType("chainengine.Err")

var (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists in the store.
	ErrDuplicateBlock = Err.CodeWithDetail("ErrDuplicateBlock", "duplicate")

	// ErrPreviousBlockUnknown indicates a header's claimed parent is not
	// present in the store. AddHeader buffers such a header as an orphan
	// and does not return this code; it is listed in rejectStrings so
	// ErrToRejectErr can map it.
	ErrPreviousBlockUnknown = Err.CodeWithDetail("ErrPreviousBlockUnknown", "prev-blk-not-found")

	// ErrHighHash indicates the block does not hash to a value lower
	// than its stated target.
	ErrHighHash = Err.CodeWithDetail("ErrHighHash", "high-hash")

	// ErrBadPow indicates the header's bits decompress to a target
	// outside the network's permitted range.
	ErrBadPow = Err.CodeWithDetail("ErrBadPow", "bad-pow")

	// ErrPowCannotVerify indicates proof of work could not be checked
	// because a required ancestor header is missing from the store.
	ErrPowCannotVerify = Err.CodeWithDetail("ErrPowCannotVerify", "pow-cannot-verify")

	// ErrUnexpectedDifficulty indicates the header's bits do not match
	// the value computed by the retarget or non-retarget rule.
	ErrUnexpectedDifficulty = Err.CodeWithDetail("ErrUnexpectedDifficulty", "bad-diffbits")

	// ErrDifficultyTooLow indicates a header's difficulty is lower than
	// required by the most recent checkpoint.
	ErrDifficultyTooLow = Err.CodeWithDetail("ErrDifficultyTooLow", "bad-diffbits")

	// ErrBadCheckpoint indicates a header at a checkpointed height
	// doesn't match the bundled checkpoint hash.
	ErrBadCheckpoint = Err.CodeWithDetail("ErrBadCheckpoint", "bad-fork-prior-to-checkpoint")

	// ErrForkTooOld indicates a header attempts to fork the chain below
	// the most recent checkpoint.
	ErrForkTooOld = Err.CodeWithDetail("ErrForkTooOld", "bad-fork-prior-to-checkpoint")

	// ErrCheckpointTimeTooOld indicates a header's timestamp precedes
	// the most recent checkpoint's.
	ErrCheckpointTimeTooOld = Err.CodeWithDetail("ErrCheckpointTimeTooOld", "bad-fork-prior-to-checkpoint")

	// ErrStorage wraps a BlockStore I/O failure encountered mid-validation.
	ErrStorage = Err.Code("ErrStorage")
)

// rejectStrings mirrors the teacher's errorStrings side table, used only
// to produce a human string for ErrToRejectErr when a code carries no
// situation-specific description.
var rejectStrings = map[*er.ErrorCode]string{
	ErrDuplicateBlock:       "duplicate",
	ErrPreviousBlockUnknown: "prev-blk-not-found",
	ErrHighHash:             "high-hash",
	ErrBadPow:               "bad-pow",
	ErrPowCannotVerify:      "pow-cannot-verify",
	ErrUnexpectedDifficulty: "bad-diffbits",
	ErrDifficultyTooLow:     "bad-diffbits",
	ErrBadCheckpoint:        "bad-fork-prior-to-checkpoint",
	ErrForkTooOld:           "bad-fork-prior-to-checkpoint",
	ErrCheckpointTimeTooOld: "bad-fork-prior-to-checkpoint",
}

// ErrToRejectErr maps a validation failure to the wire.RejectCode and
// reason string a PeerConnection sends back in a reject message.
func ErrToRejectErr(err er.R) (wire.RejectCode, string) {
	if err == nil {
		return wire.RejectInvalid, "rejected"
	}
	code := err.CodeOf()
	if code == nil {
		return wire.RejectInvalid, "rejected: " + err.Message()
	}

	reason, ok := rejectStrings[code]
	if !ok {
		reason = err.Message()
	}

	switch code {
	case ErrDuplicateBlock:
		return wire.RejectDuplicate, reason
	case ErrCheckpointTimeTooOld, ErrDifficultyTooLow, ErrBadCheckpoint, ErrForkTooOld:
		return wire.RejectCheckpoint, reason
	default:
		return wire.RejectInvalid, reason
	}
}
