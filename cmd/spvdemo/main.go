// Command spvdemo is a smoke-test harness: it wires chaincfg, headerfs,
// chainengine, and peergroup together, connects to a network, and prints
// the best height as headers arrive. It is not a wallet and carries no
// UTXO or transaction-relay UI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ltcsuite/ltcspv/chaincfg"
	"github.com/ltcsuite/ltcspv/chainengine"
	"github.com/ltcsuite/ltcspv/headerfs"
	"github.com/ltcsuite/ltcspv/peergroup"
)

func paramsForNetwork(network string) *chaincfg.Params {
	switch strings.ToLower(network) {
	case "mainnet", "":
		return &chaincfg.MainNetParams
	case "testnet", "testnet4":
		return &chaincfg.TestNet4Params
	case "regtest", "regression":
		return &chaincfg.RegressionNetParams
	case "signet":
		return &chaincfg.SigNetParams
	default:
		return nil
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	useLogging(cfg.LogLevel)

	params := paramsForNetwork(cfg.Network)
	if params == nil {
		fmt.Fprintf(os.Stderr, "unknown network %q\n", cfg.Network)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		fmt.Fprintln(os.Stderr, "creating datadir:", err)
		os.Exit(1)
	}
	store, serr := headerfs.NewBoltStore(filepath.Join(cfg.DataDir, "headers.db"))
	if serr != nil {
		fmt.Fprintln(os.Stderr, "opening header store:", serr)
		os.Exit(1)
	}
	defer store.Close()

	engine := chainengine.New(params, store)
	defer engine.Stop()
	if err := engine.EnsureGenesis(); err != nil {
		fmt.Fprintln(os.Stderr, "ensuring genesis:", err)
		os.Exit(1)
	}

	engine.OnNewBestBlock(func(tip *headerfs.StoredBlock) {
		fmt.Printf("new best height %d hash %s\n", tip.Height, tip.Hash())
	})

	// Services is 0: a light client serves nothing to the network it is
	// downloading headers from.
	pgCfg := peergroup.Config{
		ChainParams: params,
		Engine:      engine,
		TargetSize:  cfg.TargetSize,
		UserAgent:   "/spvdemo:0.1.0/",
	}
	if cfg.ConnectTo != "" {
		for _, addr := range strings.Split(cfg.ConnectTo, ",") {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				pgCfg.ExplicitAddrs = append(pgCfg.ExplicitAddrs, addr)
			}
		}
	} else {
		pgCfg.UseDNSSeeds = true
	}

	pg := peergroup.New(pgCfg)
	pg.Start()
	defer pg.Stop()

	if err := pg.WaitForPeers(1, 30*time.Second); err != nil {
		fmt.Fprintln(os.Stderr, "waiting for peers:", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		tip, err := engine.Tip()
		if err != nil {
			fmt.Fprintln(os.Stderr, "reading tip:", err)
			continue
		}
		fmt.Printf("height=%d peers=%d\n", tip.Height, pg.ReadyCount())
	}
}
