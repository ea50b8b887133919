package headerfs

import (
	"github.com/btcsuite/btclog"

	"github.com/ltcsuite/ltcspv/internal/plog"
)

var log = plog.Disabled

// UseLogger sets the package-wide logger used by headerfs.
func UseLogger(logger btclog.Logger) { log = logger }
