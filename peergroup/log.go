package peergroup

import (
	"github.com/btcsuite/btclog"

	"github.com/ltcsuite/ltcspv/internal/plog"
)

var log = plog.Disabled

// UseLogger sets the package-wide logger used by peergroup.
func UseLogger(logger btclog.Logger) { log = logger }
