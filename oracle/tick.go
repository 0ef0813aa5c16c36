package oracle

import (
	"time"

	"cosmossdk.io/math"
)

// Tick is one price observation for a pair, as received from the oracle feed.
type Tick struct {
	Pair       string
	Price      math.LegacyDec
	ObservedAt time.Time
}
