package matcher

import (
	"github.com/armon/go-metrics"
)

// pairLabel returns a label keying a counter by trading pair.
func pairLabel(pair string) metrics.Label {
	return metrics.Label{Name: "pair", Value: pair}
}

// incrMatched records one fill on asset.
func incrMatched(asset string) {
	metrics.IncrCounterWithLabels(
		[]string{"matcher", "tick", "matched"},
		1,
		[]metrics.Label{pairLabel(asset)},
	)
}

// incrPromoted records one New->Open promotion on asset.
func incrPromoted(asset string) {
	metrics.IncrCounterWithLabels(
		[]string{"matcher", "tick", "promoted"},
		1,
		[]metrics.Label{pairLabel(asset)},
	)
}

// incrRepositoryError records one failed repository call during a tick,
// labeled by the operation that failed.
func incrRepositoryError(asset, op string) {
	metrics.IncrCounterWithLabels(
		[]string{"matcher", "repository", "error"},
		1,
		[]metrics.Label{pairLabel(asset), {Name: "op", Value: op}},
	)
}
