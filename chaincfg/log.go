package chaincfg

import (
	"github.com/btcsuite/btclog"

	"github.com/ltcsuite/ltcspv/internal/plog"
)

var log = plog.Disabled

// UseLogger sets the package-wide logger used by chaincfg. By default a
// disabled logger is used so this package produces no output unless the
// caller sets one (see cmd/spvdemo/log.go for an example wiring).
func UseLogger(logger btclog.Logger) { log = logger }
