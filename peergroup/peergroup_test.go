package peergroup

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/peer"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// remoteHandshake plays the other side of conn's handshake: it reads the
// local Peer's version message, replies with a version message carrying
// services/height, then exchanges verack. It must run in its own
// goroutine since the local Peer's own handshake blocks on the same
// exchange.
func remoteHandshake(t *testing.T, conn net.Conn, services protocol.ServiceFlag, height int32) {
	t.Helper()
	params := &chaincfg.RegressionNetParams

	msg, _, err := wire.ReadMessage(conn, protocol.ProtocolVersion, params.Net)
	require.NoError(t, err)
	_, ok := msg.(*wire.MsgVersion)
	require.True(t, ok)

	me := wire.NewNetAddressIPPort(net.IPv4zero, 0, services)
	you := wire.NewNetAddressIPPort(net.IPv4zero, 0, 0)
	ver := wire.NewMsgVersion(me, you, 1, height)
	ver.AddService(services)
	require.NoError(t, wire.WriteMessage(conn, ver, protocol.ProtocolVersion, params.Net))
	require.NoError(t, wire.WriteMessage(conn, &wire.MsgVerAck{}, protocol.ProtocolVersion, params.Net))

	msg, _, err = wire.ReadMessage(conn, protocol.ProtocolVersion, params.Net)
	require.NoError(t, err)
	_, ok = msg.(*wire.MsgVerAck)
	require.True(t, ok)
}

// newReadyPeer returns a peer.Peer that has completed its handshake
// against a remote end advertising services/height, plus the remote
// conn so a test can keep driving or observing the wire. The peer runs
// its full Run(true) loop in the background until closed.
func newReadyPeer(t *testing.T, services protocol.ServiceFlag, height int32, cfg peer.Config) (*peer.Peer, net.Conn) {
	t.Helper()
	client, remote := net.Pipe()

	cfg.ChainParams = &chaincfg.RegressionNetParams
	if cfg.BestHeight == nil {
		cfg.BestHeight = func() int32 { return 0 }
	}

	p := peer.NewPeer(client, cfg)

	go remoteHandshake(t, remote, services, height)
	go func() { p.Run(true) }()

	waitForState(t, p, peer.StateReady, 2*time.Second)
	t.Cleanup(func() { p.Close() })
	return p, remote
}

func waitForState(t *testing.T, p *peer.Peer, want peer.State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("peer did not reach state %s within %s (state=%s)", want, timeout, p.State())
}

func TestElectDownloadPeerPrefersHighestAdvertisedHeight(t *testing.T) {
	low, _ := newReadyPeer(t, protocol.SFNodeNetwork, 100, peer.Config{})
	high, _ := newReadyPeer(t, protocol.SFNodeNetwork, 200, peer.Config{})

	pg := &PeerGroup{ready: map[string]*peer.Peer{
		low.Addr():  low,
		high.Addr(): high,
	}}

	best := pg.electDownloadPeer()
	require.Same(t, high, best)
}

func TestElectDownloadPeerIgnoresNonDownloadCapablePeers(t *testing.T) {
	capable, _ := newReadyPeer(t, protocol.SFNodeNetwork, 50, peer.Config{})
	tallButIncapable, _ := newReadyPeer(t, 0, 500, peer.Config{})

	pg := &PeerGroup{ready: map[string]*peer.Peer{
		capable.Addr():          capable,
		tallButIncapable.Addr(): tallButIncapable,
	}}

	best := pg.electDownloadPeer()
	require.Same(t, capable, best)
}

func TestElectDownloadPeerReturnsNilWithNoCandidates(t *testing.T) {
	pg := &PeerGroup{ready: map[string]*peer.Peer{}}
	require.Nil(t, pg.electDownloadPeer())
}

// TestElectIfNeededResetsProgressOnlyWhenStalled checks that electIfNeeded
// leaves lastProgress untouched while the current download peer is Ready
// and within the stall window, but refreshes it (via re-election) once
// the peer has gone stale.
func TestElectIfNeededResetsProgressOnlyWhenStalled(t *testing.T) {
	p, _ := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})

	pg := &PeerGroup{
		cfg:   Config{StallTimeout: defaultStallTimeout},
		ready: map[string]*peer.Peer{p.Addr(): p},
	}
	pg.cfg.setDefaults()

	fixed := time.Now().Add(-pg.cfg.StallTimeout / 2)
	pg.downloadPeer = p
	pg.lastProgress = fixed

	pg.electIfNeeded()
	require.Equal(t, fixed, pg.lastProgress, "not stalled yet: lastProgress must not move")

	pg.lastProgress = time.Now().Add(-2 * pg.cfg.StallTimeout)
	pg.electIfNeeded()
	require.WithinDuration(t, time.Now(), pg.lastProgress, time.Second, "stalled: re-election must refresh lastProgress")
}

func TestBroadcastTransactionSucceedsOnObservedGetData(t *testing.T) {
	p, remote := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})
	pg := &PeerGroup{ready: map[string]*peer.Peer{p.Addr(): p}}

	tx := wire.NewMsgTx(1)

	go func() {
		msg, _, err := wire.ReadMessage(remote, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
		if err != nil {
			return
		}
		inv, ok := msg.(*wire.MsgInv)
		if !ok || len(inv.InvList) == 0 {
			return
		}
		gd := wire.NewMsgGetData()
		gd.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &inv.InvList[0].Hash))
		wire.WriteMessage(remote, gd, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
	}()

	err := pg.BroadcastTransaction(tx, 2*time.Second)
	require.Nil(t, err)
}

func TestBroadcastTransactionFailsWithoutObservedGetData(t *testing.T) {
	p, _ := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})
	pg := &PeerGroup{ready: map[string]*peer.Peer{p.Addr(): p}}

	tx := wire.NewMsgTx(1)
	err := pg.BroadcastTransaction(tx, 200*time.Millisecond)
	require.NotNil(t, err)
	require.True(t, ErrBroadcastFailed.Is(err))
}

func TestBroadcastTransactionFailsWithNoReadyPeers(t *testing.T) {
	pg := &PeerGroup{ready: map[string]*peer.Peer{}}
	err := pg.BroadcastTransaction(wire.NewMsgTx(1), 50*time.Millisecond)
	require.NotNil(t, err)
	require.True(t, ErrBroadcastFailed.Is(err))
}

func TestUpdateFilterSendsToEveryReadyPeer(t *testing.T) {
	p1, r1 := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})
	p2, r2 := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})
	pg := &PeerGroup{ready: map[string]*peer.Peer{p1.Addr(): p1, p2.Addr(): p2}}

	filter := wire.NewMsgFilterLoad([]byte{1, 2, 3}, 1, 0, wire.BloomUpdateNone)

	got := make(chan *wire.MsgFilterLoad, 2)
	read := func(c net.Conn) {
		msg, _, err := wire.ReadMessage(c, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
		if err != nil {
			got <- nil
			return
		}
		fl, _ := msg.(*wire.MsgFilterLoad)
		got <- fl
	}
	go read(r1)
	go read(r2)

	pg.UpdateFilter(filter)

	for i := 0; i < 2; i++ {
		select {
		case fl := <-got:
			require.NotNil(t, fl)
			require.Equal(t, filter.Filter, fl.Filter)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for filterload")
		}
	}
}

// TestStopClosesPeersWithinDeadline checks spec.md §8's invariant: after
// stop() all peer sockets are closed within 5s.
func TestStopClosesPeersWithinDeadline(t *testing.T) {
	p1, remote1 := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})
	p2, remote2 := newReadyPeer(t, protocol.SFNodeNetwork, 10, peer.Config{})

	pg := &PeerGroup{
		ready: map[string]*peer.Peer{p1.Addr(): p1, p2.Addr(): p2},
		slots: map[string]*connSlot{},
		quit:  make(chan struct{}),
	}
	pg.cond = sync.NewCond(&pg.mu)

	start := time.Now()
	pg.Stop()
	elapsed := time.Since(start)
	require.Less(t, elapsed, stopJoinDeadline+time.Second)

	waitForState(t, p1, peer.StateClosed, 2*time.Second)
	waitForState(t, p2, peer.StateClosed, 2*time.Second)

	var buf [1]byte
	remote1.SetReadDeadline(time.Now().Add(time.Second))
	_, err := remote1.Read(buf[:])
	require.Error(t, err)
	remote2.SetReadDeadline(time.Now().Add(time.Second))
	_, err = remote2.Read(buf[:])
	require.Error(t, err)
}

func TestCandidateAddrsSkipsBannedAndBackoffAddrs(t *testing.T) {
	pg := &PeerGroup{
		slots:  map[string]*connSlot{},
		banned: map[string]time.Time{},
	}
	pg.addrPool = []*wire.NetAddress{
		{IP: net.ParseIP("10.0.0.1"), Port: 9333},
		{IP: net.ParseIP("10.0.0.2"), Port: 9333},
		{IP: net.ParseIP("10.0.0.3"), Port: 9333},
	}
	pg.banned["10.0.0.1:9333"] = time.Now().Add(time.Hour)
	pg.slots["10.0.0.2:9333"] = &connSlot{addr: "10.0.0.2:9333", nextTry: time.Now().Add(time.Hour)}

	got := pg.candidateAddrs(10)
	require.Equal(t, []string{"10.0.0.3:9333"}, got)
}

func TestCandidateAddrsAllowsExpiredBan(t *testing.T) {
	pg := &PeerGroup{
		slots:  map[string]*connSlot{},
		banned: map[string]time.Time{},
	}
	pg.addrPool = []*wire.NetAddress{{IP: net.ParseIP("10.0.0.1"), Port: 9333}}
	pg.banned["10.0.0.1:9333"] = time.Now().Add(-time.Minute)

	got := pg.candidateAddrs(10)
	require.Equal(t, []string{"10.0.0.1:9333"}, got)
	_, stillBanned := pg.banned["10.0.0.1:9333"]
	require.False(t, stillBanned)
}

