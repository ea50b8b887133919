// Package peer implements PeerConnection: the state machine, wire
// handshake, liveness, and inflight-request tracking for one connection
// to a remote Litecoin node.
//
// Grounded on the wire-message shapes already implemented (version,
// verack, ping/pong, getheaders/headers, getdata/inv/notfound, mempool,
// filterload) and on netsync/interface.go's PeerNotifier contract for
// the shape of the callbacks a peer reports upward through. The
// upstream fork's own peer package did not survive pruning into this
// tree, so the state machine itself is authored fresh rather than
// adapted from a surviving file; its concurrency shape (reader
// goroutine, writer goroutine, mutex-guarded inflight map) follows the
// same "single-writer owns a channel, readers take a lock" pattern used
// by chainengine's notification dispatch.
package peer

import (
	"container/ring"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aead/siphash"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// State is one stage of a PeerConnection's lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateHandshaking:
		return "Handshaking"
	case StateReady:
		return "Ready"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

const (
	pingInterval     = 2 * time.Second
	pongTimeout      = 20 * time.Second
	requestTimeout   = 30 * time.Second
	pingSampleWindow = 20

	defaultDependencyDepth   = 1000
	defaultDependencyWallClk = 60 * time.Second
	mempoolProbeTimeout      = 10 * time.Second

	outboundQueueDepth = 64
)

// Config carries everything a Peer needs to complete the handshake and
// report upward. Every field is required except the On* callbacks.
type Config struct {
	ChainParams *chaincfg.Params
	Services    protocol.ServiceFlag
	UserAgent   string

	// BestHeight is consulted for the height advertised in our version
	// message and refreshed on demand (never cached across calls).
	BestHeight func() int32

	// RequireNodeNetwork is not read by Peer: IsDownloadCapable reports
	// NODE_NETWORK support whatever its value. A peer lacking
	// NODE_NETWORK is still usable, just demoted to serving-only.
	RequireNodeNetwork bool

	// OnReady is called once the handshake completes, before the ping
	// loop starts, so a caller (PeerGroup) can add this connection to
	// its Ready set and reset its reconnect backoff.
	OnReady   func(p *Peer)
	OnHeaders func(p *Peer, headers []*wire.BlockHeader)
	OnInv     func(p *Peer, inv *wire.MsgInv)
	OnTx      func(p *Peer, tx *wire.MsgTx)
	OnReject  func(p *Peer, reject *wire.MsgReject)
	// OnGetData is called for each Tx inventory vector a remote peer
	// requests after one of our inv announcements. Returning a non-nil
	// MsgTx serves it back; returning nil sends notfound.
	OnGetData func(p *Peer, txid chainhash.Hash) *wire.MsgTx
	// OnDisconnect is called once, from the connection's own teardown
	// path, after the socket is closed and all inflight requests have
	// been failed.
	OnDisconnect func(p *Peer, reason er.R)
}

// pending is one inflight request awaiting a matching reply.
type pending struct {
	ch    chan wire.Message
	timer *time.Timer
}

// Peer is one connection to a remote node, framing messages over a
// length-prefixed magic-guarded socket and tracking its handshake and
// liveness state.
type Peer struct {
	cfg  Config
	conn net.Conn
	addr string

	mu             sync.Mutex
	state          State
	protoVersion   uint32
	services       protocol.ServiceFlag
	userAgent      string
	bestHeight     int32
	pingSamples    *ring.Ring
	lastPingNonce  uint64
	lastPingSentAt time.Time

	inflightMu sync.Mutex
	inflight   map[inflightKey]*pending

	sipKey  [16]byte
	nonceCt uint64

	outbound chan wire.Message
	quit     chan struct{}
	closeErr er.R
	wg       sync.WaitGroup
}

type inflightKind int

const (
	kindGetHeaders inflightKind = iota
	kindGetDataTx
	kindGetDataBlock
	kindPing
	kindMempoolProbe
	kindAwaitGetData
)

type inflightKey struct {
	kind inflightKind
	hash chainhash.Hash
}

// NewPeer wraps an already-connected socket. The caller is responsible
// for dialing; Peer owns conn from this point on.
func NewPeer(conn net.Conn, cfg Config) *Peer {
	p := &Peer{
		cfg:      cfg,
		conn:     conn,
		addr:     conn.RemoteAddr().String(),
		state:    StateConnecting,
		inflight: make(map[inflightKey]*pending),
		outbound: make(chan wire.Message, outboundQueueDepth),
		quit:     make(chan struct{}),
	}
	if _, err := rand.Read(p.sipKey[:]); err != nil {
		// Fall back to a time-derived key; nonce uniqueness, not
		// secrecy, is what request-id derivation needs here.
		binary.LittleEndian.PutUint64(p.sipKey[:8], uint64(time.Now().UnixNano()))
	}
	return p
}

// nextNonce derives a pseudo-random 64-bit nonce from a SipHash keyed by
// this peer's session key, avoiding a crypto/rand.Reader syscall for
// every ping and tracked request.
func (p *Peer) nextNonce() uint64 {
	p.mu.Lock()
	p.nonceCt++
	ctr := p.nonceCt
	p.mu.Unlock()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], ctr)
	return siphash.Sum64(buf[:], &p.sipKey)
}

func (p *Peer) Addr() string { return p.addr }

func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// BestHeight is the height the remote peer last advertised.
func (p *Peer) BestHeight() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bestHeight
}

// UserAgent is the remote peer's advertised user agent string.
func (p *Peer) UserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userAgent
}

// IsDownloadCapable reports whether the remote peer advertised
// NODE_NETWORK, the prerequisite for being elected the header-download
// peer.
func (p *Peer) IsDownloadCapable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.services&protocol.SFNodeNetwork != 0
}

// MeanPing returns the average of this peer's recent round-trip
// samples, or 0 if none have been taken yet.
func (p *Peer) MeanPing() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pingSamples == nil {
		return 0
	}
	var sum time.Duration
	var n int
	p.pingSamples.Do(func(v interface{}) {
		if d, ok := v.(time.Duration); ok {
			sum += d
			n++
		}
	})
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

// Run performs the handshake and, on success, drives the connection
// until it closes. It blocks until the connection reaches StateClosed.
func (p *Peer) Run(outbound bool) er.R {
	p.wg.Add(1)
	go p.writeLoop()

	if err := p.handshake(outbound); err != nil {
		p.fail(err)
		p.wg.Wait()
		return err
	}

	p.setState(StateReady)
	p.mu.Lock()
	p.pingSamples = ring.New(pingSampleWindow)
	p.mu.Unlock()
	if p.cfg.OnReady != nil {
		p.cfg.OnReady(p)
	}

	p.wg.Add(1)
	go p.pingLoop()

	err := p.readLoop()
	p.fail(err)
	p.wg.Wait()
	return err
}

func (p *Peer) handshake(outbound bool) er.R {
	p.setState(StateHandshaking)

	nonce := p.nextNonce()
	me := wire.NewNetAddressIPPort(net.IPv4zero, 0, p.cfg.Services)
	you := wire.NewNetAddressIPPort(net.IPv4zero, 0, 0)
	ver := wire.NewMsgVersion(me, you, nonce, p.cfg.BestHeight())
	ver.UserAgent = p.cfg.UserAgent
	ver.AddService(p.cfg.Services)

	if err := p.sendNow(ver); err != nil {
		return err
	}

	var gotVersion, gotVerAck bool
	deadline := time.Now().Add(requestTimeout)
	for !gotVersion || !gotVerAck {
		if time.Now().After(deadline) {
			return ErrTimeout.New("handshake did not complete in time", nil)
		}
		p.conn.SetReadDeadline(deadline)
		msg, _, err := wire.ReadMessage(p.conn, protocol.ProtocolVersion, p.cfg.ChainParams.Net)
		if err != nil {
			return ErrCodec.New("reading handshake message", err)
		}
		switch m := msg.(type) {
		case *wire.MsgVersion:
			if gotVersion {
				return ErrProtocol.New("duplicate version message", nil)
			}
			gotVersion = true
			p.mu.Lock()
			p.protoVersion = minUint32(protocol.ProtocolVersion, uint32(m.ProtocolVersion))
			p.services = m.Services
			p.userAgent = m.UserAgent
			p.bestHeight = m.LastBlock
			p.mu.Unlock()
			if err := p.send(&wire.MsgVerAck{}); err != nil {
				return err
			}
		case *wire.MsgVerAck:
			gotVerAck = true
		default:
			// A well-behaved peer only sends version/verack before
			// the handshake completes; anything else is a protocol
			// violation rather than silently ignored.
			return ErrProtocol.New(fmt.Sprintf("unexpected message %q during handshake", msg.Command()), nil)
		}
	}
	p.conn.SetReadDeadline(time.Time{})
	return nil
}

func (p *Peer) pingLoop() {
	defer p.wg.Done()
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.sendPing()
		case <-p.quit:
			return
		}
	}
}

func (p *Peer) sendPing() {
	nonce := p.nextNonce()
	p.mu.Lock()
	p.lastPingNonce = nonce
	p.lastPingSentAt = time.Now()
	p.mu.Unlock()

	ch := make(chan wire.Message, 1)
	key := inflightKey{kind: kindPing, hash: nonceHash(nonce)}
	p.track(key, ch, pongTimeout)

	if err := p.send(wire.NewMsgPing(nonce)); err != nil {
		return
	}

	go func() {
		select {
		case <-ch:
			p.mu.Lock()
			rtt := time.Since(p.lastPingSentAt)
			if p.pingSamples != nil {
				p.pingSamples.Value = rtt
				p.pingSamples = p.pingSamples.Next()
			}
			p.mu.Unlock()
		case <-p.quit:
		}
	}()
}

// codecFailureWindow and codecFailureLimit implement "3 malformed messages
// within 60s disconnects the peer" — a peer that trips the codec once an
// hour for the life of a long session must not be penalized the same as one
// flooding garbage.
const (
	codecFailureWindow = 60 * time.Second
	codecFailureLimit  = 3
)

func (p *Peer) readLoop() er.R {
	var codecFailures []time.Time
	for {
		msg, _, err := wire.ReadMessage(p.conn, p.protoVersion, p.cfg.ChainParams.Net)
		if err != nil {
			now := time.Now()
			codecFailures = append(codecFailures, now)
			cutoff := now.Add(-codecFailureWindow)
			for len(codecFailures) > 0 && codecFailures[0].Before(cutoff) {
				codecFailures = codecFailures[1:]
			}
			if len(codecFailures) >= codecFailureLimit {
				return ErrCodec.New("too many malformed messages", err)
			}
			continue
		}

		if p.handle(msg) {
			return nil
		}
	}
}

// handle dispatches one inbound message, completing any inflight
// request it satisfies. It returns true if the connection should close.
func (p *Peer) handle(msg wire.Message) bool {
	switch m := msg.(type) {
	case *wire.MsgPing:
		p.send(wire.NewMsgPong(m.Nonce))
	case *wire.MsgPong:
		p.complete(inflightKey{kind: kindPing, hash: nonceHash(m.Nonce)}, m)
	case *wire.MsgHeaders:
		headers := make([]*wire.BlockHeader, len(m.Headers))
		copy(headers, m.Headers)
		p.complete(inflightKey{kind: kindGetHeaders}, m)
		if p.cfg.OnHeaders != nil {
			p.cfg.OnHeaders(p, headers)
		}
	case *wire.MsgInv:
		if p.cfg.OnInv != nil {
			p.cfg.OnInv(p, m)
		}
		for _, iv := range m.InvList {
			if iv.Type == wire.InvTypeTx {
				p.complete(inflightKey{kind: kindMempoolProbe, hash: iv.Hash}, m)
			}
		}
	case *wire.MsgTx:
		hash := m.TxHash()
		p.complete(inflightKey{kind: kindGetDataTx, hash: hash}, m)
		if p.cfg.OnTx != nil {
			p.cfg.OnTx(p, m)
		}
	case *wire.MsgNotFound:
		for _, iv := range m.InvList {
			switch iv.Type {
			case wire.InvTypeTx, wire.InvTypeWitnessTx:
				p.complete(inflightKey{kind: kindGetDataTx, hash: iv.Hash}, m)
			case wire.InvTypeBlock, wire.InvTypeWitnessBlock:
				p.complete(inflightKey{kind: kindGetDataBlock, hash: iv.Hash}, m)
			}
		}
	case *wire.MsgGetData:
		for _, iv := range m.InvList {
			if iv.Type != wire.InvTypeTx && iv.Type != wire.InvTypeWitnessTx {
				continue
			}
			p.complete(inflightKey{kind: kindAwaitGetData, hash: iv.Hash}, m)
			if p.cfg.OnGetData == nil {
				continue
			}
			if tx := p.cfg.OnGetData(p, iv.Hash); tx != nil {
				p.send(tx)
			} else {
				nf := wire.NewMsgNotFound()
				nf.AddInvVect(iv)
				p.send(nf)
			}
		}
	case *wire.MsgReject:
		if p.cfg.OnReject != nil {
			p.cfg.OnReject(p, m)
		}
	case *wire.MsgVersion, *wire.MsgVerAck:
		// Already handled during the handshake; a second copy is
		// tolerated rather than torn down, matching real-world peer
		// leniency.
	}
	return false
}

func nonceHash(nonce uint64) chainhash.Hash {
	var h chainhash.Hash
	binary.LittleEndian.PutUint64(h[:8], nonce)
	return h
}

func (p *Peer) track(key inflightKey, ch chan wire.Message, timeout time.Duration) {
	t := time.AfterFunc(timeout, func() {
		p.inflightMu.Lock()
		if entry, ok := p.inflight[key]; ok && entry.ch == ch {
			delete(p.inflight, key)
		}
		p.inflightMu.Unlock()
	})
	p.inflightMu.Lock()
	p.inflight[key] = &pending{ch: ch, timer: t}
	p.inflightMu.Unlock()
}

func (p *Peer) complete(key inflightKey, msg wire.Message) {
	p.inflightMu.Lock()
	entry, ok := p.inflight[key]
	if ok {
		delete(p.inflight, key)
	}
	p.inflightMu.Unlock()
	if !ok {
		return
	}
	entry.timer.Stop()
	select {
	case entry.ch <- msg:
	default:
	}
}

// send enqueues msg for the writer goroutine, returning ErrClosed if the
// connection is no longer accepting outbound traffic.
func (p *Peer) send(msg wire.Message) er.R {
	select {
	case p.outbound <- msg:
		return nil
	case <-p.quit:
		return ErrClosed.Default()
	}
}

// sendNow writes msg synchronously, used only during the handshake
// before the writer goroutine's queue is the sole path to the socket.
func (p *Peer) sendNow(msg wire.Message) er.R {
	return wire.WriteMessage(p.conn, msg, protocol.ProtocolVersion, p.cfg.ChainParams.Net)
}

func (p *Peer) writeLoop() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.outbound:
			if err := wire.WriteMessage(p.conn, msg, p.protoVersion, p.cfg.ChainParams.Net); err != nil {
				p.fail(ErrCodec.New("writing message", err))
				return
			}
		case <-p.quit:
			return
		}
	}
}

// fail transitions the connection to Closing/Closed, failing every
// inflight request and closing the socket. Safe to call more than once;
// only the first call's reason is recorded.
func (p *Peer) fail(reason er.R) {
	p.mu.Lock()
	if p.state == StateClosing || p.state == StateClosed {
		p.mu.Unlock()
		return
	}
	p.state = StateClosing
	p.closeErr = reason
	p.mu.Unlock()

	close(p.quit)
	p.conn.Close()

	p.inflightMu.Lock()
	for key, entry := range p.inflight {
		entry.timer.Stop()
		close(entry.ch)
		delete(p.inflight, key)
	}
	p.inflightMu.Unlock()

	p.setState(StateClosed)
	if p.cfg.OnDisconnect != nil {
		p.cfg.OnDisconnect(p, reason)
	}
}

// Close requests an orderly shutdown of the connection.
func (p *Peer) Close() { p.fail(nil) }

// AwaitGetData blocks until the remote peer requests txid via getdata
// (the observed-relay signal broadcastTransaction waits for), or
// timeout elapses.
func (p *Peer) AwaitGetData(txid chainhash.Hash, timeout time.Duration) (struct{}, er.R) {
	ch := make(chan wire.Message, 1)
	key := inflightKey{kind: kindAwaitGetData, hash: txid}
	p.track(key, ch, timeout)
	select {
	case _, ok := <-ch:
		if !ok {
			return struct{}{}, ErrClosed.Default()
		}
		return struct{}{}, nil
	case <-time.After(timeout):
		return struct{}{}, ErrTimeout.New("awaiting getdata", nil)
	}
}

// GetHeaders requests headers following locator, stopping at hashStop
// (or the zero hash for "as many as the peer will send").
func (p *Peer) GetHeaders(locator wire.BlockLocator, hashStop chainhash.Hash) ([]*wire.BlockHeader, er.R) {
	req := &wire.MsgGetHeaders{
		ProtocolVersion:    p.protoVersion,
		BlockLocatorHashes: locator,
		HashStop:           hashStop,
	}
	ch := make(chan wire.Message, 1)
	key := inflightKey{kind: kindGetHeaders}
	p.track(key, ch, requestTimeout)
	if err := p.send(req); err != nil {
		return nil, err
	}
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed.Default()
		}
		return msg.(*wire.MsgHeaders).Headers, nil
	case <-time.After(requestTimeout):
		return nil, ErrTimeout.New("getheaders", nil)
	}
}

// getTx requests a single transaction by txid, returning (nil, nil) if
// the peer replies notfound (already confirmed, or simply absent).
func (p *Peer) getTx(txid chainhash.Hash) (*wire.MsgTx, er.R) {
	getData := wire.NewMsgGetData()
	if err := getData.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &txid)); err != nil {
		return nil, ErrProtocol.New("building getdata", err)
	}

	ch := make(chan wire.Message, 1)
	key := inflightKey{kind: kindGetDataTx, hash: txid}
	p.track(key, ch, requestTimeout)
	if err := p.send(getData); err != nil {
		return nil, err
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed.Default()
		}
		switch m := msg.(type) {
		case *wire.MsgTx:
			return m, nil
		case *wire.MsgNotFound:
			return nil, nil
		default:
			return nil, ErrProtocol.Default()
		}
	case <-time.After(requestTimeout):
		return nil, ErrTimeout.New("getdata tx", nil)
	}
}

// DownloadDependencies walks tx's ancestor transactions breadth-first
// over spent outpoints, fetching each unseen ancestor from this peer.
// Transactions already confirmed (the peer replies notfound) are
// treated as resolved and not descended into further. The result is
// ordered children-before-parents.
func (p *Peer) DownloadDependencies(tx *wire.MsgTx) ([]*wire.MsgTx, er.R) {
	return p.downloadDependencies(tx, defaultDependencyDepth, defaultDependencyWallClk)
}

func (p *Peer) downloadDependencies(tx *wire.MsgTx, maxDepth int, wallClock time.Duration) ([]*wire.MsgTx, er.R) {
	deadline := time.Now().Add(wallClock)
	seen := map[chainhash.Hash]bool{tx.TxHash(): true}
	queue := []*wire.MsgTx{tx}
	var result []*wire.MsgTx

	for len(queue) > 0 {
		if len(result) >= maxDepth {
			return result, ErrDependencyLimit.New("depth limit exceeded", nil)
		}
		if time.Now().After(deadline) {
			return result, ErrDependencyLimit.New("wall-clock limit exceeded", nil)
		}

		cur := queue[0]
		queue = queue[1:]
		if cur != tx {
			result = append(result, cur)
		}

		for _, in := range cur.TxIn {
			parentID := in.PreviousOutPoint.Hash
			if seen[parentID] {
				continue
			}
			seen[parentID] = true

			parent, err := p.getTx(parentID)
			if err != nil {
				return result, err
			}
			if parent == nil {
				// Peer reports notfound: already confirmed, nothing
				// further to resolve along this branch.
				continue
			}
			queue = append(queue, parent)
		}
	}
	return result, nil
}

// GetPeerMempoolTransaction probes whether the remote peer's mempool
// holds txid: sends a mempool request, and if the peer's resulting inv
// advertises txid, fetches it. Returns ErrNotInMempool if the peer's
// advertisement never arrives within the probe timeout.
func (p *Peer) GetPeerMempoolTransaction(txid chainhash.Hash) (*wire.MsgTx, er.R) {
	ch := make(chan wire.Message, 1)
	key := inflightKey{kind: kindMempoolProbe, hash: txid}
	p.track(key, ch, mempoolProbeTimeout)
	if err := p.send(wire.NewMsgMemPool()); err != nil {
		return nil, err
	}

	select {
	case _, ok := <-ch:
		if !ok {
			return nil, ErrClosed.Default()
		}
	case <-time.After(mempoolProbeTimeout):
		return nil, ErrNotInMempool.Default()
	}
	return p.getTx(txid)
}

// SendFilterLoad installs a new bloom filter on the remote peer.
func (p *Peer) SendFilterLoad(msg *wire.MsgFilterLoad) er.R { return p.send(msg) }

// SendInv advertises inv to the remote peer (used for broadcastTransaction).
func (p *Peer) SendInv(inv *wire.MsgInv) er.R { return p.send(inv) }

func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
