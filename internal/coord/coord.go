// Package coord defines the 4-tuple address space (φ, ψ, t, θ) that event
// nodes live in.
//
// φ and ψ are the two spatial axes, t is generation time and θ is the phase of
// the wave that produced the node. The address of a node is its (φ, ψ, t)
// triple; θ rides along for interference classification and is not part of the
// address.
//
// Floating point components are never compared directly. All identity checks
// go through a Quantizer, which rounds each addressed component onto an
// integer grid of a configured tolerance.
package coord

import (
	"fmt"
	"math"
)

// TwoPi is one full phase turn.
const TwoPi = 2 * math.Pi

// Axis selects one component of a Coordinate.
type Axis int

const (
	AxisPhi Axis = iota
	AxisPsi
	AxisT
	AxisTheta
)

func (a Axis) String() string {
	switch a {
	case AxisPhi:
		return "phi"
	case AxisPsi:
		return "psi"
	case AxisT:
		return "t"
	case AxisTheta:
		return "theta"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Coordinate is a point in the address space.
type Coordinate struct {
	Phi   float64 `json:"phi"`
	Psi   float64 `json:"psi"`
	T     float64 `json:"t"`
	Theta float64 `json:"theta"`
}

// Origin returns (0, 0, 0, 0).
func Origin() Coordinate {
	return Coordinate{}
}

// Offset returns c moved by delta along axis. Offsets along AxisTheta are
// wrapped into [0, 2π).
func (c Coordinate) Offset(axis Axis, delta float64) Coordinate {
	switch axis {
	case AxisPhi:
		c.Phi += delta
	case AxisPsi:
		c.Psi += delta
	case AxisT:
		c.T += delta
	case AxisTheta:
		c.Theta = WrapPhase(c.Theta + delta)
	}
	return c
}

// Rotate applies a combined (φ, ψ) displacement.
func (c Coordinate) Rotate(dPhi, dPsi float64) Coordinate {
	c.Phi += dPhi
	c.Psi += dPsi
	return c
}

// Advance accumulates phase.
func (c Coordinate) Advance(dTheta float64) Coordinate {
	return c.Offset(AxisTheta, dTheta)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g, %g, %.4f)", c.Phi, c.Psi, c.T, c.Theta)
}

// WrapPhase maps any angle into [0, 2π).
func WrapPhase(theta float64) float64 {
	w := math.Mod(theta, TwoPi)
	if w < 0 {
		w += TwoPi
	}
	// math.Mod can return values within rounding of 2π for inputs just below a
	// multiple of it; fold those back to 0.
	if w >= TwoPi {
		w = 0
	}
	return w
}

// PhaseDistance returns the angular distance between two phases, in [0, π].
func PhaseDistance(a, b float64) float64 {
	d := math.Abs(WrapPhase(a) - WrapPhase(b))
	if d > math.Pi {
		d = TwoPi - d
	}
	return d
}
