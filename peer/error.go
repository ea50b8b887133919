package peer

import "github.com/ltcsuite/ltcspv/er"

// Err identifies a PeerConnection-level failure. There is no teacher
// file this package adapts (the upstream fork's own peer package did
// not survive into this tree), so its error taxonomy is authored fresh
// following the same er.ErrorType/er.ErrorCode convention every other
// package in this module uses.
var Err = er.NewErrorType("peer.Err")

var (
	// ErrCodec indicates malformed framing or a payload that failed to
	// decode. The connection resyncs on the wire magic; three of these
	// within 60 seconds closes it.
	ErrCodec = Err.CodeWithDetail("ErrCodec", "malformed message")

	// ErrProtocol indicates a peer violated the handshake or messaging
	// protocol (e.g. sent a second version message, or a message before
	// completing the handshake).
	ErrProtocol = Err.CodeWithDetail("ErrProtocol", "protocol violation")

	// ErrTimeout indicates a ping or a tracked request did not complete
	// in time.
	ErrTimeout = Err.CodeWithDetail("ErrTimeout", "timed out")

	// ErrDependencyLimit indicates downloadDependencies exceeded its
	// depth or wall-clock budget.
	ErrDependencyLimit = Err.CodeWithDetail("ErrDependencyLimit", "dependency download limit exceeded")

	// ErrNotInMempool indicates a mempool probe found the peer does not
	// have the requested transaction.
	ErrNotInMempool = Err.CodeWithDetail("ErrNotInMempool", "peer does not have transaction in its mempool")

	// ErrClosed indicates an operation was attempted on a connection
	// that has already moved to Closing or Closed.
	ErrClosed = Err.CodeWithDetail("ErrClosed", "peer connection is closed")
)
