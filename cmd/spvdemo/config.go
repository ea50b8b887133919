package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"
)

// config mirrors the thin option set a smoke-test harness needs: which
// network to join, how many peers to keep open, and where to persist
// headers. Not a stand-in for a full node's configuration surface.
type config struct {
	Network    string `short:"n" long:"network" description:"mainnet, testnet, or regtest" default:"mainnet"`
	DataDir    string `short:"d" long:"datadir" description:"directory for the bbolt header store" default:"spvdemo-data"`
	TargetSize int    `long:"peers" description:"number of peer connections to maintain" default:"4"`
	ConnectTo  string `long:"connect" description:"comma-separated host:port addresses to connect to, skipping discovery"`
	LogLevel   string `long:"loglevel" description:"trace, debug, info, warn, error, critical, off" default:"info"`
}

func loadConfig() (*config, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}
	return cfg, nil
}
