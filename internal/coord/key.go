package coord

import (
	"fmt"
	"math"
)

// DefaultTolerance is the grid spacing used when none is configured.
const DefaultTolerance = 1e-6

// Key is the hashable grid cell of a coordinate's address (φ, ψ, t).
type Key struct {
	Phi int64
	Psi int64
	T   int64
}

func (k Key) String() string {
	return fmt.Sprintf("[%d %d %d]", k.Phi, k.Psi, k.T)
}

// Quantizer maps coordinates onto grid cells of a fixed tolerance.
type Quantizer struct {
	tolerance float64
}

// NewQuantizer returns a quantizer for the given tolerance.
// Tolerance must be positive and finite.
func NewQuantizer(tolerance float64) (Quantizer, error) {
	if !(tolerance > 0) || math.IsInf(tolerance, 0) {
		return Quantizer{}, fmt.Errorf("tolerance must be positive and finite, got %v", tolerance)
	}
	return Quantizer{tolerance: tolerance}, nil
}

// Tolerance returns the grid spacing.
func (q Quantizer) Tolerance() float64 {
	return q.tolerance
}

// Key returns the grid cell holding c.
func (q Quantizer) Key(c Coordinate) Key {
	return Key{
		Phi: q.cell(c.Phi),
		Psi: q.cell(c.Psi),
		T:   q.cell(c.T),
	}
}

// Same reports whether a and b occupy the same grid cell.
func (q Quantizer) Same(a, b Coordinate) bool {
	return q.Key(a) == q.Key(b)
}

func (q Quantizer) cell(x float64) int64 {
	return int64(math.Round(x / q.tolerance))
}

// Center returns the coordinate at the centre of a cell, with zero phase.
func (q Quantizer) Center(k Key) Coordinate {
	return Coordinate{
		Phi: float64(k.Phi) * q.tolerance,
		Psi: float64(k.Psi) * q.tolerance,
		T:   float64(k.T) * q.tolerance,
	}
}
