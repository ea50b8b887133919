// Package peergroup implements PeerGroup: discovery, connection-pool
// maintenance with per-address reconnect backoff, download-peer
// election, transaction broadcast, and bloom-filter distribution across
// a set of peer.Peer connections.
//
// There is no surviving teacher file for this orchestration layer
// either (the upstream fork's netsync package assumed a full node's
// blockmanager, not a light client's peer pool), so its shape is
// authored fresh atop peer.Peer and connmgr, following the same
// copy-on-write-snapshot-plus-mutex idiom chainengine uses for its own
// shared state.
package peergroup

import (
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainengine"
	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/connmgr"
	"github.com/ltcsuite/ltcspv/er"
	"github.com/ltcsuite/ltcspv/peer"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

const (
	defaultTargetSize   = 4
	defaultStallTimeout = 60 * time.Second
	banDuration         = 1 * time.Hour
	maintainInterval    = 2 * time.Second
	electionInterval    = 5 * time.Second
	stopJoinDeadline    = 5 * time.Second
	networkUnavailable  = 10 * time.Minute
)

// Config configures a PeerGroup's discovery sources and connection
// policy. Engine and ChainParams are required; everything else has a
// workable default.
type Config struct {
	ChainParams *chaincfg.Params
	Engine      *chainengine.Engine

	// TargetSize is the number of simultaneously open connections to
	// maintain. Defaults to 4.
	TargetSize int

	Services  protocol.ServiceFlag
	UserAgent string

	// Dial opens an outbound connection; defaults to net.Dialer.Dial.
	Dial func(network, address string) (net.Conn, error)

	UseDNSSeeds   bool
	DNSLookup     connmgr.LookupFunc
	HTTPSeeds     []string
	ExplicitAddrs []string

	// StallTimeout is how long the download peer may go without
	// advancing the tip before it is considered stalled and
	// re-elected. Defaults to 60s.
	StallTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.TargetSize <= 0 {
		c.TargetSize = defaultTargetSize
	}
	if c.Dial == nil {
		d := net.Dialer{Timeout: 10 * time.Second}
		c.Dial = d.Dial
	}
	if c.DNSLookup == nil {
		c.DNSLookup = connmgr.DefaultLookup
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = defaultStallTimeout
	}
}

type connSlot struct {
	addr    string
	backoff *connmgr.Backoff
	nextTry time.Time
	dialing bool
	peer    *peer.Peer
}

// PeerGroup maintains a pool of peer connections and coordinates header
// download, transaction broadcast, and bloom-filter distribution across
// them.
type PeerGroup struct {
	cfg    Config
	engine *chainengine.Engine

	mu     sync.Mutex
	cond   *sync.Cond
	slots  map[string]*connSlot
	ready  map[string]*peer.Peer
	banned map[string]time.Time

	addrMu      sync.Mutex
	addrPool    []*wire.NetAddress
	firstAddrAt time.Time

	downloadMu   sync.Mutex
	downloadPeer *peer.Peer
	lastProgress time.Time

	currentFilter *wire.MsgFilterLoad

	quit    chan struct{}
	quitErg errgroup.Group
	closed  bool
}

// New constructs a PeerGroup from cfg. Call Start to begin discovery
// and connection maintenance.
func New(cfg Config) *PeerGroup {
	cfg.setDefaults()
	pg := &PeerGroup{
		cfg:    cfg,
		engine: cfg.Engine,
		slots:  make(map[string]*connSlot),
		ready:  make(map[string]*peer.Peer),
		banned: make(map[string]time.Time),
		quit:   make(chan struct{}),
	}
	pg.cond = sync.NewCond(&pg.mu)
	return pg
}

// Start launches discovery and the background maintenance, election,
// and header-sync loops.
func (pg *PeerGroup) Start() {
	pg.addrMu.Lock()
	pg.firstAddrAt = time.Now()
	pg.addrMu.Unlock()

	pg.discover()

	pg.quitErg.Go(func() error { pg.maintainLoop(); return nil })
	pg.quitErg.Go(func() error { pg.electionLoop(); return nil })
}

func (pg *PeerGroup) discover() {
	onSeed := func(addrs []*wire.NetAddress) {
		pg.addrMu.Lock()
		pg.addrPool = append(pg.addrPool, addrs...)
		pg.addrMu.Unlock()
	}

	if pg.cfg.UseDNSSeeds {
		connmgr.SeedFromDNS(pg.cfg.ChainParams, pg.cfg.Services, pg.cfg.DNSLookup, onSeed)
	}
	for _, seedURL := range pg.cfg.HTTPSeeds {
		connmgr.SeedFromHTTP(pg.cfg.ChainParams, seedURL, onSeed)
	}
	if len(pg.cfg.ExplicitAddrs) > 0 {
		connmgr.SeedFromAddrs(pg.cfg.ExplicitAddrs, portOf(pg.cfg.ChainParams), onSeed)
	}
}

func portOf(params *chaincfg.Params) uint16 {
	port, _ := strconv.Atoi(params.DefaultPort)
	return uint16(port)
}

// ReadyCount returns the number of peers currently in the Ready state.
func (pg *PeerGroup) ReadyCount() int {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return len(pg.ready)
}

// WaitForPeers blocks until at least n peers are Ready, the group is
// stopped (returning ErrStopped), or timeout elapses (returning
// ErrNetworkUnavailable).
func (pg *PeerGroup) WaitForPeers(n int, timeout time.Duration) er.R {
	deadline := time.Now().Add(timeout)
	done := make(chan struct{})
	go func() {
		pg.mu.Lock()
		defer pg.mu.Unlock()
		for len(pg.ready) < n && !pg.closed {
			if timeout > 0 && time.Now().After(deadline) {
				return
			}
			pg.cond.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		pg.mu.Lock()
		closed := pg.closed
		ok := len(pg.ready) >= n
		pg.mu.Unlock()
		if closed && !ok {
			return ErrStopped.Default()
		}
		return nil
	case <-time.After(timeout):
		pg.cond.Broadcast() // wake the waiter goroutine so it can exit
		return ErrNetworkUnavailable.Default()
	}
}

// maintainLoop keeps the connection count at min(TargetSize,
// len(addrPool)) by dialing candidate addresses not currently connected,
// banned, or waiting out backoff.
func (pg *PeerGroup) maintainLoop() {
	t := time.NewTicker(maintainInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			pg.maintainOnce()
		case <-pg.quit:
			return
		}
	}
}

func (pg *PeerGroup) maintainOnce() {
	pg.mu.Lock()
	active := 0
	for _, s := range pg.slots {
		if s.peer != nil || s.dialing {
			active++
		}
	}
	need := pg.cfg.TargetSize - active
	pg.mu.Unlock()
	if need <= 0 {
		return
	}

	for _, addr := range pg.candidateAddrs(need) {
		pg.dial(addr)
	}

	if pg.ReadyCount() == 0 {
		pg.addrMu.Lock()
		since := time.Since(pg.firstAddrAt)
		pg.addrMu.Unlock()
		if since > networkUnavailable {
			log.Warnf("no ready peers after %s, still retrying", since)
		}
	}
}

// candidateAddrs picks up to n addresses from the pool that aren't
// banned, already connected, or still waiting out their backoff.
func (pg *PeerGroup) candidateAddrs(n int) []string {
	pg.addrMu.Lock()
	pool := make([]*wire.NetAddress, len(pg.addrPool))
	copy(pool, pg.addrPool)
	pg.addrMu.Unlock()

	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	now := time.Now()
	pg.mu.Lock()
	defer pg.mu.Unlock()

	var picked []string
	for _, a := range pool {
		if len(picked) >= n {
			break
		}
		addr := net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
		if expires, ok := pg.banned[addr]; ok {
			if now.Before(expires) {
				continue
			}
			delete(pg.banned, addr)
		}
		if slot, ok := pg.slots[addr]; ok {
			if slot.peer != nil || slot.dialing || now.Before(slot.nextTry) {
				continue
			}
		}
		picked = append(picked, addr)
	}
	return picked
}

func (pg *PeerGroup) dial(addr string) {
	pg.mu.Lock()
	slot, ok := pg.slots[addr]
	if !ok {
		slot = &connSlot{addr: addr, backoff: connmgr.NewBackoff()}
		pg.slots[addr] = slot
	}
	slot.dialing = true
	pg.mu.Unlock()

	go func() {
		conn, err := pg.cfg.Dial("tcp", addr)
		if err != nil {
			pg.onDialFailed(addr)
			return
		}

		p := peer.NewPeer(conn, peer.Config{
			ChainParams:        pg.cfg.ChainParams,
			Services:           pg.cfg.Services,
			UserAgent:          pg.cfg.UserAgent,
			RequireNodeNetwork: false,
			BestHeight:         pg.currentHeight,
			OnReady:            pg.onPeerReady,
			OnHeaders:          pg.onHeaders,
			OnDisconnect:       func(p *peer.Peer, reason er.R) { pg.onPeerDisconnect(addr, reason) },
		})

		pg.mu.Lock()
		slot.peer = p
		pg.mu.Unlock()

		p.Run(true)
	}()
}

func (pg *PeerGroup) onDialFailed(addr string) {
	pg.mu.Lock()
	slot, ok := pg.slots[addr]
	if ok {
		slot.dialing = false
		slot.nextTry = time.Now().Add(slot.backoff.Next())
	}
	pg.mu.Unlock()
}

func (pg *PeerGroup) currentHeight() int32 {
	tip, err := pg.engine.Tip()
	if err != nil {
		return 0
	}
	return int32(tip.Height)
}

func (pg *PeerGroup) onPeerReady(p *peer.Peer) {
	pg.mu.Lock()
	if slot, ok := pg.slots[p.Addr()]; ok {
		slot.backoff.Reset()
	}
	pg.ready[p.Addr()] = p
	pg.cond.Broadcast()
	pg.mu.Unlock()

	if filter := pg.getFilter(); filter != nil {
		p.SendFilterLoad(filter)
	}
}

func (pg *PeerGroup) onPeerDisconnect(addr string, reason er.R) {
	pg.mu.Lock()
	delete(pg.ready, addr)
	if slot, ok := pg.slots[addr]; ok {
		slot.peer = nil
		slot.dialing = false
		slot.nextTry = time.Now().Add(slot.backoff.Next())
	}
	pg.cond.Broadcast()
	pg.mu.Unlock()

	pg.downloadMu.Lock()
	if pg.downloadPeer != nil && pg.downloadPeer.Addr() == addr {
		pg.downloadPeer = nil
	}
	pg.downloadMu.Unlock()
}

func (pg *PeerGroup) ban(addr string) {
	pg.mu.Lock()
	pg.banned[addr] = time.Now().Add(banDuration)
	pg.mu.Unlock()
	if p, ok := pg.ready[addr]; ok {
		p.Close()
	}
}

// electionLoop periodically (re-)selects the download peer and drives
// header sync through it.
func (pg *PeerGroup) electionLoop() {
	t := time.NewTicker(electionInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			pg.electIfNeeded()
			pg.syncOnce()
		case <-pg.quit:
			return
		}
	}
}

func (pg *PeerGroup) electIfNeeded() {
	pg.downloadMu.Lock()
	cur := pg.downloadPeer
	stalled := cur != nil && !pg.lastProgress.IsZero() && time.Since(pg.lastProgress) > pg.cfg.StallTimeout
	pg.downloadMu.Unlock()

	if cur != nil && cur.State() == peer.StateReady && !stalled {
		return
	}

	elected := pg.electDownloadPeer()
	pg.downloadMu.Lock()
	pg.downloadPeer = elected
	if elected != nil {
		pg.lastProgress = time.Now()
	}
	pg.downloadMu.Unlock()
}

// electDownloadPeer picks the Ready, NODE_NETWORK-capable peer with the
// greatest advertised height, breaking ties by lowest mean ping.
func (pg *PeerGroup) electDownloadPeer() *peer.Peer {
	pg.mu.Lock()
	candidates := make([]*peer.Peer, 0, len(pg.ready))
	for _, p := range pg.ready {
		candidates = append(candidates, p)
	}
	pg.mu.Unlock()

	var best *peer.Peer
	for _, p := range candidates {
		if !p.IsDownloadCapable() {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if p.BestHeight() > best.BestHeight() {
			best = p
		} else if p.BestHeight() == best.BestHeight() && p.MeanPing() < best.MeanPing() {
			best = p
		}
	}
	return best
}

func (pg *PeerGroup) syncOnce() {
	pg.downloadMu.Lock()
	dp := pg.downloadPeer
	pg.downloadMu.Unlock()
	if dp == nil {
		return
	}

	tip, err := pg.engine.Tip()
	if err != nil {
		return
	}
	locator, err := buildLocator(pg.engine, tip)
	if err != nil {
		log.Errorf("building locator: %v", err)
		return
	}

	headers, err := dp.GetHeaders(locator, chainhash.Hash{})
	if err != nil {
		log.Debugf("getheaders to %s failed: %v", dp.Addr(), err)
		return
	}
	pg.applyHeaders(dp, headers)
}

func (pg *PeerGroup) onHeaders(p *peer.Peer, headers []*wire.BlockHeader) {
	pg.downloadMu.Lock()
	isDownloadPeer := pg.downloadPeer != nil && pg.downloadPeer.Addr() == p.Addr()
	pg.downloadMu.Unlock()
	if !isDownloadPeer {
		return
	}
	pg.applyHeaders(p, headers)
}

// applyHeaders feeds headers to the ChainEngine in order. A validation
// failure is treated as the download peer misbehaving: it is banned for
// an hour and the next election cycle picks a replacement.
func (pg *PeerGroup) applyHeaders(p *peer.Peer, headers []*wire.BlockHeader) {
	progressed := false
	for _, h := range headers {
		acc, err := pg.engine.AddHeader(h)
		if err != nil {
			log.Warnf("peer %s sent invalid header, banning: %v", p.Addr(), err)
			pg.ban(p.Addr())
			pg.downloadMu.Lock()
			pg.downloadPeer = nil
			pg.downloadMu.Unlock()
			return
		}
		if acc == chainengine.BestChain {
			progressed = true
		}
	}
	if progressed {
		pg.downloadMu.Lock()
		pg.lastProgress = time.Now()
		pg.downloadMu.Unlock()
	}
}

// BroadcastTransaction relays tx's inv to at least min(ReadyCount, 2)
// peers and waits for at least one of them to request it via getdata,
// the completion contract for "observed relay".
func (pg *PeerGroup) BroadcastTransaction(tx *wire.MsgTx, timeout time.Duration) er.R {
	pg.mu.Lock()
	peers := make([]*peer.Peer, 0, len(pg.ready))
	for _, p := range pg.ready {
		peers = append(peers, p)
	}
	pg.mu.Unlock()

	want := 2
	if len(peers) < want {
		want = len(peers)
	}
	if want == 0 {
		return ErrBroadcastFailed.New("no ready peers", nil)
	}
	rand.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })

	txid := tx.TxHash()
	inv := wire.NewMsgInv()
	inv.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &txid))

	relayed := make(chan struct{}, want)
	for i := 0; i < want; i++ {
		p := peers[i]
		go func() {
			if err := p.SendInv(inv); err != nil {
				return
			}
			if _, err := p.AwaitGetData(txid, timeout); err == nil {
				select {
				case relayed <- struct{}{}:
				default:
				}
			}
		}()
	}

	select {
	case <-relayed:
		return nil
	case <-time.After(timeout):
		return ErrBroadcastFailed.Default()
	}
}

func (pg *PeerGroup) getFilter() *wire.MsgFilterLoad {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return pg.currentFilter
}

// UpdateFilter installs filter on every Ready peer in parallel. No
// getdata issued by this PeerGroup after UpdateFilter returns will
// reference the previous filter.
func (pg *PeerGroup) UpdateFilter(filter *wire.MsgFilterLoad) {
	pg.mu.Lock()
	pg.currentFilter = filter
	peers := make([]*peer.Peer, 0, len(pg.ready))
	for _, p := range pg.ready {
		peers = append(peers, p)
	}
	pg.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p *peer.Peer) {
			defer wg.Done()
			p.SendFilterLoad(filter)
		}(p)
	}
	wg.Wait()
}

// Stop cancels all connections and background loops, waiting up to a
// 5-second join deadline before returning regardless of stragglers.
func (pg *PeerGroup) Stop() {
	pg.mu.Lock()
	if pg.closed {
		pg.mu.Unlock()
		return
	}
	pg.closed = true
	peers := make([]*peer.Peer, 0, len(pg.ready))
	for _, p := range pg.ready {
		peers = append(peers, p)
	}
	for _, s := range pg.slots {
		if s.peer != nil {
			peers = append(peers, s.peer)
		}
	}
	pg.cond.Broadcast()
	pg.mu.Unlock()

	close(pg.quit)
	for _, p := range peers {
		p.Close()
	}

	done := make(chan struct{})
	go func() {
		pg.quitErg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopJoinDeadline):
		log.Warnf("peer group stop did not join within %s", stopJoinDeadline)
	}
}
