// Package difficulty converts between the compact 32-bit "bits" encoding
// carried in a block header and the full-precision big.Int target or
// work values the chain engine's retarget and chainWork math need.
//
// Grounded on blockchain/packetcrypt/difficulty's WorkForTarget (the
// PacketCrypt-specific effective-target math that surrounded it in the
// teacher does not apply here and is dropped; see DESIGN.md).
package difficulty

import (
	"math/big"

	"github.com/ltcsuite/ltcspv/chainhash"
)

var bigOne = big.NewInt(1)

func bn256() *big.Int {
	out := big.NewInt(0)
	out.SetBit(out, 256, 1)
	return out
}

// CompactToBig expands the compact 32-bit difficulty-bits encoding used
// in a block header into a full target value. The encoding stores a
// base-256 exponent in the high byte and a 3-byte mantissa in the low
// bytes, mirroring the mantissa/exponent layout of IEEE 754 but with a
// radix of 256 rather than 2.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := bits >> 24

	var target *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target = big.NewInt(int64(mantissa))
	} else {
		target = big.NewInt(int64(mantissa))
		target.Lsh(target, uint(8*(exponent-3)))
	}

	if bits&0x00800000 != 0 {
		target.Neg(target)
	}
	return target
}

// BigToCompact condenses a full target value back into the compact
// 32-bit encoding, rounding the mantissa down to fit 23 bits as the
// reference PoW rules require.
func BigToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(target.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(target.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(target)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// The sign bit of the mantissa's top byte would flip the encoded
	// sign, so shift one more byte right and bump the exponent when
	// that bit is set.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent)<<24 | mantissa
	if target.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// HashToBig interprets a hash as a 256-bit big-endian number for target
// comparison. A hash is stored and displayed in reversed byte order, so
// the bytes are reversed before conversion.
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// CalcWork returns the amount of proof-of-work represented by bits,
// measured as the expected number of hashes needed to satisfy its
// target: 2^256 / (target+1).
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := bn256()
	tarPlusOne := new(big.Int).Add(target, bigOne)
	out.Div(out, tarPlusOne)
	return out
}
