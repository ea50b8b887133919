// Package chaincfg defines the chain parameters distinguishing
// Litecoin's mainnet, testnet4, regtest, and signet networks: wire
// magic, genesis block, difficulty retarget constants, checkpoints, and
// address/BIP32 encoding bytes.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof of work value a Litecoin block can
// have on mainnet and testnet: 2^236 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

// regTestPowLimit is the highest proof of work value permitted on
// regtest: 2^255 - 1, making every block trivially solvable.
var regTestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// Checkpoint identifies a known good point in the block chain, indexed
// by the height at which it occurs. Headers that would fork the chain
// below a checkpoint height are rejected outright.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// DNSSeed identifies a DNS seed used for peer discovery.
type DNSSeed struct {
	Host         string
	HasFiltering bool
}

// Params defines a Litecoin network by its consensus and encoding
// parameters. Every component that needs network-specific behavior
// (the chain engine, the checkpoint manager, the peer handshake) takes
// a *Params rather than reading a package-global, per the explicit
// "no global mutable context" design decision recorded in SPEC_FULL.md.
type Params struct {
	Name        string
	Net         protocol.BitcoinNet
	DefaultPort string
	DNSSeeds    []DNSSeed

	GenesisBlock *wire.BlockHeader
	GenesisHash  *chainhash.Hash

	PowLimit     *big.Int
	PowLimitBits uint32

	// SubsidyReductionInterval is the block-height interval at which
	// the block reward halves.
	SubsidyReductionInterval int32

	// TargetTimespan / TargetTimePerBlock determine the difficulty
	// retarget interval: TargetTimespan / TargetTimePerBlock blocks.
	TargetTimespan     time.Duration
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor bounds how much the difficulty may
	// change in a single retarget: new target is clamped to
	// [old/factor, old*factor].
	RetargetAdjustmentFactor int64

	// NoRetarget disables difficulty retargeting entirely (regtest).
	NoRetarget bool

	// LitecoinRetargetOneOff reproduces the historic exception where
	// the very first mainnet retarget walked back only interval-1
	// blocks instead of interval, as litecoinj's BitcoinNetworkParams
	// does. See DESIGN.md for the Open Question this resolves.
	LitecoinRetargetOneOff bool

	// ReduceMinDifficulty enables the testnet rule allowing a block
	// with timestamp more than 2*TargetTimePerBlock after its parent
	// to carry PowLimitBits, once MinDiffRelaxationTime has passed.
	ReduceMinDifficulty bool

	// MinDiffRelaxationTime is the point in time (as a Unix seconds
	// cutoff, per litecoinj's bitcoinj TestNet3Params) after which
	// ReduceMinDifficulty applies. Zero when ReduceMinDifficulty is
	// false.
	MinDiffRelaxationTime int64

	// Checkpoints, ordered oldest to newest.
	Checkpoints []Checkpoint

	Bech32HRPSegwit string

	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte

	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte
}

// Interval returns the number of blocks between difficulty retargets.
func (p *Params) Interval() int32 {
	return int32(p.TargetTimespan / p.TargetTimePerBlock)
}

func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(er.Wrapped(err))
	}
	return hash
}

func genesisHeader(genesisTime int64, bits, nonce uint32) *wire.BlockHeader {
	merkleRoot, _ := chainhash.NewHashFromStr(
		"97ddfbbae6be97fd6cdf3e7ca13232a3afff2353e29badfab7f73011edd4ced9")
	return &wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: *merkleRoot,
		Timestamp:  time.Unix(genesisTime, 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

// MainNetParams defines the network parameters for Litecoin mainnet.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         protocol.MainNet,
	DefaultPort: "9333",
	DNSSeeds: []DNSSeed{
		{"seed-a.litecoin.loshan.co.uk", true},
		{"dnsseed.thrasher.io", true},
		{"dnsseed.litecointools.com", false},
		{"dnsseed.litecoinpool.org", false},
		{"dnsseed.koin-project.com", false},
	},

	GenesisBlock: genesisHeader(1317972665, 0x1e0ffff0, 2084524493),
	GenesisHash:  newHashFromStr("12a765e31ffd4059bada1e25190f6e98c99d9714d334efa41a195a7e7e04bfe2"),

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1e0ffff0,

	SubsidyReductionInterval: 840000,
	TargetTimespan:           84 * time.Hour, // 3.5 days
	TargetTimePerBlock:       150 * time.Second,
	RetargetAdjustmentFactor: 4,

	LitecoinRetargetOneOff: true,
	ReduceMinDifficulty:    false,

	Checkpoints: []Checkpoint{
		{1500, newHashFromStr("841a2965955dd288cfa707a755d05a54e45f8bd476835ec9af4402a2b59a2967")},
		{4032, newHashFromStr("9ce90e427198fc0ef05e5905ce3503725b80e26afd35a987965fd7e3d9cf0846")},
		{8064, newHashFromStr("eb984353fc5190f210651f150c40b8a4bab9eeeff0b729fcb3987da694430d70")},
		{16128, newHashFromStr("602edf1859b7f9a6af809f1d9b0e6cb66fdc1d4d9dcd7a4bec03e12a1ccd153d")},
		{23420, newHashFromStr("d80fdf9ca81afd0bd2b2a90ac3a9fe547da58f2530ec874e978fce0b5101b507")},
		{50000, newHashFromStr("69dc37eb029b68f075a5012dcc0419c127672adb4f3a32882b2b3e71d07a20a6")},
		{80000, newHashFromStr("4fcb7c02f676a300503f49c764a89955a8f920b46a8cbecb4867182ecdb2e90a")},
		{120000, newHashFromStr("bd9d26924f05f6daa7f0155f32828ec89e8e29cee9e7121b026a7a3552ac6131")},
		{161500, newHashFromStr("dbe89880474f4bb4f75c227c77ba1cdc024991123b28b8418dbbf7798471ff43")},
		{179620, newHashFromStr("2ad9c65c990ac00426d18e446e0fd7be2ffa69e9a7dcb28358a50b2b78b9f709")},
		{240000, newHashFromStr("7140d1c4b4c2157ca217ee7636f24c9c73db39c4590c4e6eab2e3ea1555088aa")},
		{383640, newHashFromStr("2b6809f094a9215bafc65eb3f110a35127a34be94b7d0590a096c3f126c6f364")},
		{409004, newHashFromStr("487518d663d9f1fa08611d9395ad74d982b667fbdc0e77e9cf39b4f1355908a3")},
		{456000, newHashFromStr("bf34f71cc6366cd487930d06be22f897e34ca6a40501ac7d401be32456372004")},
		{541794, newHashFromStr("1cbccbe6920e7c258bbce1f26211084efb19764aa3224bec3f4320d77d6a2fd2")},
		{585010, newHashFromStr("ea9ea06840de20a18a66acb07c9102ee6374ad2cbafc71794e576354fea5df2d")},
		{638902, newHashFromStr("15238656e8ec63d28de29a8c75fcf3a5819afc953dcd9cc45cecc53baec74f38")},
	},

	Bech32HRPSegwit: "ltc",

	PubKeyHashAddrID: 0x30,
	ScriptHashAddrID: 0x32,
	PrivateKeyID:     0xB0,

	HDPrivateKeyID: [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
	HDPublicKeyID:  [4]byte{0x04, 0x88, 0xb2, 0x1e},  // xpub
}

// TestNet4Params defines the network parameters for Litecoin's current
// test network.
var TestNet4Params = Params{
	Name:        "testnet4",
	Net:         protocol.TestNet3,
	DefaultPort: "19335",
	DNSSeeds: []DNSSeed{
		{"testnet-seed.litecointools.com", false},
		{"seed-b.litecoin.loshan.co.uk", true},
		{"dnsseed-testnet.thrasher.io", true},
	},

	GenesisBlock: genesisHeader(1486949366, 0x1e0ffff0, 293345),
	GenesisHash:  newHashFromStr("4966625a4b2851d9fdee139e56211a0d88575f59ed816ff5e6a63deb4e3e29a0"),

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1e0ffff0,

	SubsidyReductionInterval: 840000,
	TargetTimespan:           84 * time.Hour,
	TargetTimePerBlock:       150 * time.Second,
	RetargetAdjustmentFactor: 4,

	LitecoinRetargetOneOff: true,

	// Per bitcoinj's TestNet3Params, the relaxation only applies after
	// 2012-02-16 00:00:00 UTC; Litecoin testnet4 launched well after
	// that date so the rule is unconditionally active, but the field is
	// still carried (as 0) for symmetry with the source and in case a
	// future network predates it.
	ReduceMinDifficulty:   true,
	MinDiffRelaxationTime: 0,

	Bech32HRPSegwit: "tltc",

	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0x3a,
	PrivateKeyID:     0xef,

	HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
	HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf},  // tpub
}

// RegressionNetParams defines the network parameters for the regression
// test network, where difficulty never changes and every block is
// trivially solvable.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         protocol.RegTest,
	DefaultPort: "19444",
	DNSSeeds:    nil,

	GenesisBlock: genesisHeader(1296688602, 0x207fffff, 0),
	GenesisHash:  newHashFromStr("530827f38f93b43ed12af0b3ad25a288dc02ed74d6d7857862df51fc56c416f9"),

	PowLimit:     regTestPowLimit,
	PowLimitBits: 0x207fffff,

	SubsidyReductionInterval: 150,
	TargetTimespan:           84 * time.Hour,
	TargetTimePerBlock:       150 * time.Second,
	RetargetAdjustmentFactor: 4,

	NoRetarget: true,

	Bech32HRPSegwit: "rltc",

	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0x3a,
	PrivateKeyID:     0xef,

	HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94},
	HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf},
}

// SigNetParams defines the network parameters for signet, carried over
// from Bitcoin Core's default signet for cross-network test tooling. No
// Litecoin-specific signet deployment is known to exist, so the genesis
// header reuses Bitcoin's default signet time, bits and nonce over
// Litecoin's genesis merkle root. Block signatures are not checked here;
// headers follow the ordinary retarget rule (NoRetarget is unset).
var SigNetParams = Params{
	Name:        "signet",
	Net:         protocol.SigNet,
	DefaultPort: "39333",
	DNSSeeds: []DNSSeed{
		{"seed.signet.litecoin-foundation.org", false},
	},

	GenesisBlock: genesisHeader(1598918400, 0x1e0377ae, 52613770),
	GenesisHash:  newHashFromStr("501bfa0b999209eb9d3d3294747ee7f106be220a764404328f202b44b0e69563"),

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1e0377ae,

	SubsidyReductionInterval: 840000,
	TargetTimespan:           84 * time.Hour,
	TargetTimePerBlock:       150 * time.Second,
	RetargetAdjustmentFactor: 4,

	Bech32HRPSegwit: "tltc",

	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0x3a,
	PrivateKeyID:     0xef,

	HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94},
	HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf},
}
