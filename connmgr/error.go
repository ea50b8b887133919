package connmgr

import "github.com/ltcsuite/ltcspv/er"

// Err identifies a peer-discovery failure.
var Err = er.NewErrorType("connmgr.Err")

// ErrNoAddresses indicates every configured discovery source (DNS, HTTP,
// explicit) failed or returned nothing, the NetworkUnavailable case
// PeerGroup surfaces after repeated backoff.
var ErrNoAddresses = Err.CodeWithDetail("ErrNoAddresses", "no discovery source yielded any addresses")
