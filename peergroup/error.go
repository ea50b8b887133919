package peergroup

import "github.com/ltcsuite/ltcspv/er"

// Err identifies a PeerGroup-level failure.
var Err = er.NewErrorType("peergroup.Err")

var (
	// ErrNetworkUnavailable is returned by WaitForPeers when fewer than
	// the requested number of peers are Ready at its timeout. It does not
	// depend on how long discovery has gone without yielding an address.
	ErrNetworkUnavailable = Err.CodeWithDetail("ErrNetworkUnavailable", "no discovery source yielded addresses")

	// ErrStopped indicates an operation was attempted after Stop.
	ErrStopped = Err.CodeWithDetail("ErrStopped", "peer group is stopped")

	// ErrBroadcastFailed indicates broadcastTransaction could not get
	// any peer to request the transaction.
	ErrBroadcastFailed = Err.CodeWithDetail("ErrBroadcastFailed", "no peer requested the broadcast transaction")

	// ErrNoDownloadPeer indicates header sync has no eligible peer to
	// elect, because none are Ready and NODE_NETWORK-capable.
	ErrNoDownloadPeer = Err.CodeWithDetail("ErrNoDownloadPeer", "no ready download-capable peer available")
)
