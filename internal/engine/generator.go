package engine

import (
	"fmt"
	"math"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/sequence"
)

// GoldenAngle is 2π/Φ², the phase step of a Fibonacci rotation.
var GoldenAngle = coord.TwoPi / (math.Phi * math.Phi)

// offset is one displacement a parent at a given shell can spawn along.
// (M, K) is the sequence index pair the displacement was built from.
type offset struct {
	Family graph.Mode
	DPhi   float64
	DPsi   float64
	DTheta float64
	M, K   int
}

// generator builds the offsets for shell n = depth(parent)+1.
//
// Fibonacci family, from F(n):
//
//	φ+F(n)               Δθ 0      pair (n, n)
//	φ−F(n)               Δθ π      pair (n, n)
//	(φ+F(n−1), ψ+F(n))   Δθ 2π/Φ²  pair (n, n−1)
//
// Lucas family, from L(n):
//
//	ψ+L(n)               Δθ π/2      pair (n, n)
//	ψ−L(n)               Δθ 3π/2     pair (n, n)
//	(φ+L(n−2), ψ+L(n))   Δθ π−2π/Φ²  pair (n, n−2)
//
// At n = 1 the Lucas rotation uses L(−1) = −1; its pair is outside m ≥ k ≥ 0
// so the Cassini filter rejects it.
type generator struct {
	oracle *sequence.Oracle
}

func (g generator) offsets(n int, mode graph.Mode) ([]offset, error) {
	switch mode {
	case graph.ModeFibonacci:
		return g.fibonacci(n)
	case graph.ModeLucas:
		return g.lucas(n)
	case graph.ModeDual:
		fib, err := g.fibonacci(n)
		if err != nil {
			return nil, err
		}
		luc, err := g.lucas(n)
		if err != nil {
			return nil, err
		}
		return append(fib, luc...), nil
	default:
		return nil, fmt.Errorf("unknown propagation mode %q", mode)
	}
}

func (g generator) fibonacci(n int) ([]offset, error) {
	fn, err := g.oracle.ForwardInt64(n)
	if err != nil {
		return nil, err
	}
	fprev, err := g.oracle.ForwardSigned(n - 1)
	if err != nil {
		return nil, err
	}
	f := float64(fn)
	return []offset{
		{Family: graph.ModeFibonacci, DPhi: f, DTheta: 0, M: n, K: n},
		{Family: graph.ModeFibonacci, DPhi: -f, DTheta: math.Pi, M: n, K: n},
		{Family: graph.ModeFibonacci, DPhi: float64(fprev), DPsi: f, DTheta: GoldenAngle, M: n, K: n - 1},
	}, nil
}

func (g generator) lucas(n int) ([]offset, error) {
	ln, err := g.oracle.BackwardInt64(n)
	if err != nil {
		return nil, err
	}
	lback, err := g.oracle.BackwardSigned(n - 2)
	if err != nil {
		return nil, err
	}
	l := float64(ln)
	return []offset{
		{Family: graph.ModeLucas, DPsi: l, DTheta: math.Pi / 2, M: n, K: n},
		{Family: graph.ModeLucas, DPsi: -l, DTheta: 3 * math.Pi / 2, M: n, K: n},
		{Family: graph.ModeLucas, DPhi: float64(lback), DPsi: l, DTheta: math.Pi - GoldenAngle, M: n, K: n - 2},
	}, nil
}

// apply moves parent by o and advances it one generation.
func (o offset) apply(parent coord.Coordinate) coord.Coordinate {
	return parent.Rotate(o.DPhi, o.DPsi).Offset(coord.AxisT, 1).Advance(o.DTheta)
}
