package peer

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainhash"
	"github.com/ltcsuite/ltcspv/wire"
	"github.com/ltcsuite/ltcspv/wire/protocol"
)

// newLinkedPeer wires a Peer to one end of an in-memory net.Pipe and
// starts its read/write loops directly, bypassing the version/verack
// handshake so tests can focus on post-handshake behavior. The caller
// gets the other end of the pipe to play remote peer.
func newLinkedPeer(t *testing.T) (*Peer, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	p := NewPeer(client, Config{
		ChainParams: &chaincfg.RegressionNetParams,
		BestHeight:  func() int32 { return 0 },
	})
	p.protoVersion = protocol.ProtocolVersion
	p.state = StateReady

	p.wg.Add(2)
	go p.writeLoop()
	go func() {
		defer p.wg.Done()
		p.readLoop()
	}()

	t.Cleanup(func() { p.Close() })
	return p, server
}

// txChain builds n synthetic transactions, each spending the previous
// one's single output, plus a tip transaction spending the last of
// them. txs[0] is the tip; txs[1:] are its ancestors closest-first.
func txChain(n int) []*wire.MsgTx {
	txs := make([]*wire.MsgTx, n+1)
	prevOutpoint := wire.OutPoint{Hash: chainhash.Hash{0xff}, Index: 0}
	for i := n; i >= 1; i-- {
		tx := &wire.MsgTx{
			Version: 1,
			TxIn:    []*wire.TxIn{{PreviousOutPoint: prevOutpoint}},
			TxOut:   []*wire.TxOut{{Value: int64(i), PkScript: []byte{byte(i)}}},
		}
		txs[i] = tx
		hash := tx.TxHash()
		prevOutpoint = wire.OutPoint{Hash: hash, Index: 0}
	}
	tip := &wire.MsgTx{
		Version: 1,
		TxIn:    []*wire.TxIn{{PreviousOutPoint: prevOutpoint}},
		TxOut:   []*wire.TxOut{{Value: 0, PkScript: []byte{0x00}}},
	}
	txs[0] = tip
	return txs
}

// serveGetData plays the remote side of the pipe: for every getdata it
// receives, it replies with the matching transaction from known, or
// notfound if the requested txid isn't in it.
func serveGetData(t *testing.T, conn net.Conn, known map[chainhash.Hash]*wire.MsgTx) {
	t.Helper()
	for {
		msg, _, err := wire.ReadMessage(conn, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
		if err != nil {
			return
		}
		getData, ok := msg.(*wire.MsgGetData)
		if !ok {
			continue
		}
		for _, iv := range getData.InvList {
			if tx, found := known[iv.Hash]; found {
				_ = wire.WriteMessage(conn, tx, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
			} else {
				nf := wire.NewMsgNotFound()
				_ = nf.AddInvVect(iv)
				_ = wire.WriteMessage(conn, nf, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
			}
		}
	}
}

func TestDownloadDependenciesWalksAncestorChain(t *testing.T) {
	txs := txChain(5)
	tip := txs[0]
	ancestors := txs[1:]

	known := make(map[chainhash.Hash]*wire.MsgTx, len(ancestors))
	for _, a := range ancestors {
		known[a.TxHash()] = a
	}

	p, remote := newLinkedPeer(t)
	go serveGetData(t, remote, known)

	got, err := p.DownloadDependencies(tip)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, a := range ancestors {
		require.Equal(t, a.TxHash(), got[i].TxHash())
	}
}

func TestDownloadDependenciesStopsAtConfirmedAncestor(t *testing.T) {
	txs := txChain(3)
	tip := txs[0]
	ancestors := txs[1:]

	// Only the closest ancestor is known; its parent is reported
	// notfound (already confirmed), so the walk should stop there
	// instead of erroring.
	known := map[chainhash.Hash]*wire.MsgTx{
		ancestors[0].TxHash(): ancestors[0],
	}

	p, remote := newLinkedPeer(t)
	go serveGetData(t, remote, known)

	got, err := p.DownloadDependencies(tip)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, ancestors[0].TxHash(), got[0].TxHash())
}

func TestGetPeerMempoolTransactionFound(t *testing.T) {
	txs := txChain(1)
	txid := txs[1].TxHash()

	p, remote := newLinkedPeer(t)
	go func() {
		for {
			msg, _, err := wire.ReadMessage(remote, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
			if err != nil {
				return
			}
			switch m := msg.(type) {
			case *wire.MsgMemPool:
				inv := wire.NewMsgInv()
				_ = inv.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &txid))
				_ = wire.WriteMessage(remote, inv, protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
			case *wire.MsgGetData:
				for _, iv := range m.InvList {
					if iv.Hash == txid {
						_ = wire.WriteMessage(remote, txs[1], protocol.ProtocolVersion, chaincfg.RegressionNetParams.Net)
					}
				}
			}
		}
	}()

	got, err := p.GetPeerMempoolTransaction(txid)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, txid, got.TxHash())
}

func TestGetPeerMempoolTransactionAbsent(t *testing.T) {
	p, remote := newLinkedPeer(t)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := remote.Read(buf); err != nil {
				return
			}
		}
	}()

	var txid chainhash.Hash
	start := time.Now()
	_, err := p.GetPeerMempoolTransaction(txid)
	require.Error(t, err)
	require.True(t, ErrNotInMempool.Is(err))
	require.True(t, time.Since(start) < requestTimeout)
}
