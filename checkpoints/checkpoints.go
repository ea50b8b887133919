// Package checkpoints parses the signed checkpoint bundle shipped per
// network and answers "what was the chain state at or before time T",
// letting a fresh SPV client skip downloading and validating the
// headers beneath its earliest wallet birthday.
//
// Grounded on litecoinj's CheckpointManager: same two wire formats
// (binary and textual), same getCheckpointBefore/getCheckpointsBefore
// API, same Litecoin-specific "predecessor found by height, not time"
// checkpoint-pair rule.
package checkpoints

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/difficulty"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/headerfs"
)

// Err identifies a checkpoints-level failure.
var Err = er.NewErrorType("checkpoints.Err")

var (
	// ErrBadMagic is returned when the bundle doesn't begin with either
	// recognized magic string.
	ErrBadMagic = Err.CodeWithDetail("ErrBadMagic", "unrecognized checkpoint bundle format")

	// ErrTooManySignatures is returned when the signature count exceeds
	// maxSignatures.
	ErrTooManySignatures = Err.CodeWithDetail("ErrTooManySignatures", "signature count out of range")

	// ErrNoCheckpoints is returned when the bundle's checkpoint count is
	// zero.
	ErrNoCheckpoints = Err.CodeWithDetail("ErrNoCheckpoints", "bundle contains no checkpoints")

	// ErrTruncated is returned when the bundle ends before its declared
	// record count is satisfied.
	ErrTruncated = Err.CodeWithDetail("ErrTruncated", "truncated checkpoint bundle")

	// ErrUnsupportedOperation is returned by SeedStore when asked to
	// seed a full-pruned store; checkpointing only makes sense for SPV
	// stores.
	ErrUnsupportedOperation = Err.CodeWithDetail("ErrUnsupportedOperation", "checkpointing requires an SPV-style store")
)

const (
	binaryMagic  = "CHECKPOINTS 1"
	textualMagic = "TXT CHECKPOINTS 1"

	// maxSignatures is the largest signature count a bundle may declare;
	// the count field itself is a u32 for historical reasons.
	maxSignatures = 256

	// signatureLen is the length, in bytes, of one bundled ECDSA
	// secp256k1 signature.
	signatureLen = 65
)

// Manager answers checkpoint queries against a loaded bundle. The
// signatures bundled alongside the checkpoints are parsed out but, as
// in the reference implementation this format comes from, their
// cryptographic verification is not yet wired up; trust in a bundle
// comes from how it was obtained (bundled with the binary, fetched over
// TLS), not from an on-the-fly signature check.
type Manager struct {
	params      *chaincfg.Params
	checkpoints []*headerfs.StoredBlock // ascending by header time
	dataHash    [32]byte
}

// Load parses a checkpoint bundle from r, auto-detecting the binary vs.
// textual format from its first byte.
func Load(params *chaincfg.Params, r io.Reader) (*Manager, er.R) {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err != nil {
		if err == io.EOF {
			return nil, ErrBadMagic.Default()
		}
		return nil, er.E(err)
	}

	var cps []*headerfs.StoredBlock
	var dataHash [32]byte
	var loadErr er.R
	switch first[0] {
	case binaryMagic[0]:
		cps, dataHash, loadErr = readBinary(br)
	case textualMagic[0]:
		cps, dataHash, loadErr = readTextual(br)
	default:
		return nil, ErrBadMagic.Default()
	}
	if loadErr != nil {
		return nil, loadErr
	}

	sort.Slice(cps, func(i, j int) bool {
		return cps[i].Header.Timestamp.Before(cps[j].Header.Timestamp)
	})

	log.Infof("loaded %d checkpoints up to height %d, data hash %x",
		len(cps), cps[len(cps)-1].Height, dataHash)

	return &Manager{params: params, checkpoints: cps, dataHash: dataHash}, nil
}

func readMagic(r *bufio.Reader, want string) er.R {
	buf := make([]byte, len(want))
	if _, err := io.ReadFull(r, buf); err != nil {
		return ErrTruncated.Default()
	}
	if string(buf) != want {
		return ErrBadMagic.Default()
	}
	return nil
}

func readBinary(r *bufio.Reader) ([]*headerfs.StoredBlock, [32]byte, er.R) {
	var zero [32]byte
	if err := readMagic(r, binaryMagic); err != nil {
		return nil, zero, err
	}

	var numSigBuf [4]byte
	if _, err := io.ReadFull(r, numSigBuf[:]); err != nil {
		return nil, zero, ErrTruncated.Default()
	}
	numSignatures := binary.BigEndian.Uint32(numSigBuf[:])
	if numSignatures > maxSignatures {
		return nil, zero, ErrTooManySignatures.Default()
	}
	for i := uint32(0); i < numSignatures; i++ {
		sig := make([]byte, signatureLen)
		if _, err := io.ReadFull(r, sig); err != nil {
			return nil, zero, ErrTruncated.Default()
		}
	}

	// The data hash is computed over everything following the
	// signatures: the checkpoint count plus every record.
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, zero, er.E(err)
	}
	if len(rest) < 4 {
		return nil, zero, ErrTruncated.Default()
	}
	numCheckpoints := binary.BigEndian.Uint32(rest[:4])
	if numCheckpoints == 0 {
		return nil, zero, ErrNoCheckpoints.Default()
	}

	cps, parseErr := parseRecords(rest[4:], numCheckpoints)
	if parseErr != nil {
		return nil, zero, parseErr
	}
	return cps, sha256.Sum256(rest), nil
}

func readTextual(r *bufio.Reader) ([]*headerfs.StoredBlock, [32]byte, er.R) {
	var zero [32]byte
	lr := bufio.NewScanner(r)
	lr.Buffer(make([]byte, 0, 4096), 1<<20)

	readLine := func() (string, bool) {
		if !lr.Scan() {
			return "", false
		}
		return lr.Text(), true
	}

	magic, ok := readLine()
	if !ok || magic != textualMagic {
		return nil, zero, ErrBadMagic.Default()
	}

	numSigLine, ok := readLine()
	if !ok {
		return nil, zero, ErrTruncated.Default()
	}
	numSignatures, convErr := strconv.Atoi(numSigLine)
	if convErr != nil || numSignatures < 0 || numSignatures > maxSignatures {
		return nil, zero, ErrTooManySignatures.Default()
	}
	for i := 0; i < numSignatures; i++ {
		if _, ok := readLine(); !ok {
			return nil, zero, ErrTruncated.Default()
		}
	}

	numLine, ok := readLine()
	if !ok {
		return nil, zero, ErrTruncated.Default()
	}
	numCheckpoints, convErr := strconv.Atoi(numLine)
	if convErr != nil || numCheckpoints <= 0 {
		return nil, zero, ErrNoCheckpoints.Default()
	}

	h := sha256.New()
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(numCheckpoints))
	h.Write(countBuf[:])

	cps := make([]*headerfs.StoredBlock, 0, numCheckpoints)
	for i := 0; i < numCheckpoints; i++ {
		line, ok := readLine()
		if !ok {
			return nil, zero, ErrTruncated.Default()
		}
		rec, decErr := base64.StdEncoding.DecodeString(line)
		if decErr != nil {
			return nil, zero, ErrTruncated.Default()
		}
		h.Write(rec)
		cp, parseErr := headerfs.DeserializeCompact(rec)
		if parseErr != nil {
			return nil, zero, parseErr
		}
		cps = append(cps, cp)
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return cps, hash, nil
}

func parseRecords(data []byte, count uint32) ([]*headerfs.StoredBlock, er.R) {
	const recLen = 96
	if uint64(len(data)) < uint64(count)*recLen {
		return nil, ErrTruncated.Default()
	}
	cps := make([]*headerfs.StoredBlock, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := data[i*recLen : (i+1)*recLen]
		cp, err := headerfs.DeserializeCompact(rec)
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, nil
}

// NumCheckpoints returns the number of checkpoints loaded.
func (m *Manager) NumCheckpoints() int { return len(m.checkpoints) }

// DataHash returns the SHA-256 hash computed over the checkpoint
// records, independent of which wire format the bundle was read from.
func (m *Manager) DataHash() [32]byte { return m.dataHash }

// floorCheckpoint returns the last checkpoint with header time <= t, or
// nil if every checkpoint postdates t.
func (m *Manager) floorCheckpoint(t time.Time) *headerfs.StoredBlock {
	idx := sort.Search(len(m.checkpoints), func(i int) bool {
		return m.checkpoints[i].Header.Timestamp.After(t)
	})
	if idx == 0 {
		return nil
	}
	return m.checkpoints[idx-1]
}

// genesisStoredBlock returns the synthetic StoredBlock for this
// manager's network genesis: height 0, chainWork equal to the genesis
// header's single-block work.
func (m *Manager) genesisStoredBlock() *headerfs.StoredBlock {
	return &headerfs.StoredBlock{
		Header:    *m.params.GenesisBlock,
		ChainWork: difficulty.CalcWork(m.params.GenesisBlock.Bits),
		Height:    0,
	}
}

// GetCheckpointBefore returns the latest checkpoint with header time <=
// t, falling back to the network's genesis block if none qualifies.
func (m *Manager) GetCheckpointBefore(t time.Time) *headerfs.StoredBlock {
	if cp := m.floorCheckpoint(t); cp != nil {
		return cp
	}
	return m.genesisStoredBlock()
}

// GetCheckpointsBefore returns [predecessor, latest] for the latest
// checkpoint with header time <= t. The predecessor is the checkpoint
// at latest.Height-1, found by scanning the full checkpoint set by
// height rather than by time: Litecoin's difficulty retarget at height
// H looks back a full interval (not interval-1, as Bitcoin does), so
// seeding a store usable for the next retarget needs both blocks.
//
// If no checkpoint qualifies, returns a single-element slice holding
// the synthetic genesis StoredBlock.
func (m *Manager) GetCheckpointsBefore(t time.Time) []*headerfs.StoredBlock {
	latest := m.floorCheckpoint(t)
	if latest == nil {
		return []*headerfs.StoredBlock{m.genesisStoredBlock()}
	}

	predecessor := m.blockAtHeight(latest.Height - 1)
	if predecessor == nil {
		return []*headerfs.StoredBlock{latest}
	}
	return []*headerfs.StoredBlock{predecessor, latest}
}

func (m *Manager) blockAtHeight(height uint32) *headerfs.StoredBlock {
	for _, cp := range m.checkpoints {
		if cp.Height == height {
			return cp
		}
	}
	return nil
}

// SeedStore inserts the checkpoint pair nearest to t (minus a 7-day
// clock-drift allowance) into store and marks the later one as the
// chain tip, letting a fresh client skip downloading and validating
// every header beneath it. Returns ErrUnsupportedOperation if pruned is
// true, i.e. the caller declares store to be a full-pruned store.
func SeedStore(params *chaincfg.Params, m *Manager, store headerfs.BlockStore, pruned bool, t time.Time) er.R {
	if pruned {
		return ErrUnsupportedOperation.Default()
	}

	t = t.Add(-7 * 24 * time.Hour)
	cps := m.GetCheckpointsBefore(t)

	var last *headerfs.StoredBlock
	for _, cp := range cps {
		if err := store.Put(cp); err != nil && !headerfs.ErrConflict.Is(err) {
			return err
		}
		last = cp
	}

	hash := last.Hash()
	return store.SetChainTip(&hash)
}
