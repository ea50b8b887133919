package chaincfg

import (
	"strings"

	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// Err identifies a chaincfg-level failure: registering the same network
// twice, or looking up an address/HD key ID that no registered network
// claims.
var Err = er.NewErrorType("chaincfg.Err")

var (
	ErrDuplicateNet   = Err.CodeWithDetail("ErrDuplicateNet", "duplicate network")
	ErrUnknownNet     = Err.CodeWithDetail("ErrUnknownNet", "unknown network")
	ErrUnknownHDKeyID = Err.CodeWithDetail("ErrUnknownHDKeyID", "unknown hd private extended key bytes")
)

var (
	registeredNets       = make(map[protocol.BitcoinNet]*Params)
	pubKeyHashAddrIDs    = make(map[byte]struct{})
	scriptHashAddrIDs    = make(map[byte]struct{})
	bech32SegwitPrefixes = make(map[string]struct{})
	hdPrivToPubKeyIDs    = make(map[[4]byte][4]byte)
)

// Register records params as a known network, so ParamsForNet and the
// address-ID predicates below recognize it. Registering the same
// network twice returns ErrDuplicateNet.
func Register(params *Params) er.R {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet.Default()
	}
	registeredNets[params.Net] = params
	pubKeyHashAddrIDs[params.PubKeyHashAddrID] = struct{}{}
	scriptHashAddrIDs[params.ScriptHashAddrID] = struct{}{}
	hdPrivToPubKeyIDs[params.HDPrivateKeyID] = params.HDPublicKeyID

	// A valid Bech32 encoded segwit address always has as prefix the
	// human-readable part for the given net followed by '1'.
	bech32SegwitPrefixes[params.Bech32HRPSegwit+"1"] = struct{}{}
	return nil
}

func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic(er.Wrapped(err))
	}
}

// ParamsForNet returns the registered Params for net, or ErrUnknownNet.
func ParamsForNet(net protocol.BitcoinNet) (*Params, er.R) {
	p, ok := registeredNets[net]
	if !ok {
		return nil, ErrUnknownNet.Default()
	}
	return p, nil
}

// IsPubKeyHashAddrID returns whether id prefixes a pay-to-pubkey-hash
// address on any registered network.
func IsPubKeyHashAddrID(id byte) bool {
	_, ok := pubKeyHashAddrIDs[id]
	return ok
}

// IsScriptHashAddrID returns whether id prefixes a pay-to-script-hash
// address on any registered network.
func IsScriptHashAddrID(id byte) bool {
	_, ok := scriptHashAddrIDs[id]
	return ok
}

// IsBech32SegwitPrefix returns whether prefix is a known Bech32 HRP
// (plus separator) for a registered network.
func IsBech32SegwitPrefix(prefix string) bool {
	_, ok := bech32SegwitPrefixes[strings.ToLower(prefix)]
	return ok
}

// HDPrivateKeyToPublicKeyID returns the public extended key version
// bytes matching the given private extended key version bytes, for any
// registered network.
func HDPrivateKeyToPublicKeyID(id []byte) ([]byte, er.R) {
	if len(id) != 4 {
		return nil, ErrUnknownHDKeyID.Default()
	}
	var key [4]byte
	copy(key[:], id)
	pub, ok := hdPrivToPubKeyIDs[key]
	if !ok {
		return nil, ErrUnknownHDKeyID.Default()
	}
	return pub[:], nil
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNet4Params)
	mustRegister(&RegressionNetParams)
	mustRegister(&SigNetParams)
}
