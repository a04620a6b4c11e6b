package engine

import "github.com/roach88/wavegrid/internal/graph"

// Regime thresholds below the saturation threshold.
const (
	QuantumBelow      = 0.25
	IntermediateBelow = 0.6
)

// ClassifyRegime maps coverage to a phase regime. Saturation is checked
// first, so a threshold below 0.6 shadows the lower bands.
func ClassifyRegime(coverage, threshold float64) graph.Regime {
	switch {
	case coverage >= threshold:
		return graph.RegimeSaturated
	case coverage < QuantumBelow:
		return graph.RegimeQuantum
	case coverage < IntermediateBelow:
		return graph.RegimeIntermediate
	default:
		return graph.RegimeClassical
	}
}

// coverage is occupied cells over addressable cells, clamped to [0, 1].
// Keys are unique in the index, so occupied cells equal the node count.
func (e *Engine) coverage() float64 {
	if e.addressable <= 0 {
		return 1
	}
	c := float64(len(e.nodes)) / float64(e.addressable)
	if c > 1 {
		return 1
	}
	return c
}

// track refreshes the backpressure flag. Once set it stays set until Reset,
// because coverage never decreases.
func (e *Engine) track() {
	e.saturated = e.coverage() >= e.cfg.SaturationThreshold
}

// saturateActive is the end-of-tick tracker pass: at capacity every Active
// node becomes Saturated. Returns how many were moved.
func (e *Engine) saturateActive() int {
	e.track()
	if !e.saturated {
		return 0
	}
	moved := 0
	for i := range e.nodes {
		if e.nodes[i].State == graph.StateActive {
			e.nodes[i].State = graph.StateSaturated
			moved++
		}
	}
	return moved
}
