// Package plog centralizes the per-subsystem loggers used across this
// module, following the same "one backend, one tagged Logger per
// package, UseLogger(logger) setter" convention the wider btcsuite/pktd
// family of repos uses.
//
// Library packages default to a disabled logger so importing this
// module produces no output until a caller wires one in; see
// cmd/spvdemo/log.go for how an application assembles the full set.
package plog

import (
	"os"

	"github.com/btcsuite/btclog"
)

// Backend is the shared backend every subsystem logger is created from.
// Applications may swap its writer (e.g. to a log-rotator pipe) before
// wiring subsystem loggers.
var Backend = btclog.NewBackend(os.Stdout)

// Disabled is a logger that discards everything. It is the default for
// every package-level logger variable in this module until a caller
// calls that package's UseLogger.
var Disabled = btclog.Disabled

// NewLogger creates a new Logger tagged with subsystem (a short,
// conventionally four-character, all-caps identifier such as "CENG" or
// "PEER") backed by Backend.
func NewLogger(subsystem string) btclog.Logger {
	return Backend.Logger(subsystem)
}

// LevelFromString parses a level name ("trace", "debug", "info", "warn",
// "error", "critical", "off"), falling back to LevelInfo on an unrecognized
// string.
func LevelFromString(s string) btclog.Level {
	level, ok := btclog.LevelFromString(s)
	if !ok {
		return btclog.LevelInfo
	}
	return level
}
