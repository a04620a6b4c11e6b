package engine

import (
	"math"
	"sync"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
)

// maxAddressable caps the bounded estimate so sums never overflow.
const maxAddressable = int64(1) << 62

type reachKey struct {
	maxShell  int
	filter    bool
	tolerance float64
	budget    int
}

var reachMemo = struct {
	sync.Mutex
	m map[reachKey]int64
}{m: make(map[reachKey]int64)}

// addressable counts the (φ, ψ, t) cells reachable from the origin within
// MaxShell generations, using the Dual generator and the filter's acceptance
// rule. Dual is the union of the other two modes, so nothing any mode can
// reach is missed.
//
// Shells are enumerated exactly while the running total stays within
// AddressBudget. Past that, each remaining shell is bounded by
// min(previous × branching, lattice box), which never undercounts.
// Results are shared across engines with the same parameters.
func addressable(cfg Config, gen generator, f Filter, q coord.Quantizer) (int64, error) {
	key := reachKey{maxShell: cfg.MaxShell, filter: f.Enabled(), tolerance: q.Tolerance(), budget: cfg.AddressBudget}

	reachMemo.Lock()
	defer reachMemo.Unlock()
	if n, ok := reachMemo.m[key]; ok {
		return n, nil
	}
	n, err := enumerate(cfg.MaxShell, cfg.AddressBudget, gen, f, q)
	if err != nil {
		return 0, err
	}
	reachMemo.m[key] = n
	return n, nil
}

func enumerate(maxShell, budget int, gen generator, f Filter, q coord.Quantizer) (int64, error) {
	frontier := []coord.Coordinate{coord.Origin()}
	total := int64(1)

	n := 1
	for ; n <= maxShell; n++ {
		offs, err := accepted(gen, f, n)
		if err != nil {
			return 0, err
		}
		if total+int64(len(frontier))*int64(len(offs)) > int64(budget) {
			break
		}

		seen := make(map[coord.Key]coord.Coordinate, len(frontier)*len(offs))
		for _, p := range frontier {
			for _, o := range offs {
				c := o.apply(p)
				k := q.Key(c)
				if _, ok := seen[k]; !ok {
					seen[k] = c
				}
			}
		}
		frontier = frontier[:0]
		for _, c := range seen {
			frontier = append(frontier, c)
		}
		total += int64(len(frontier))
	}
	if n > maxShell {
		return total, nil
	}

	// Bounded tail.
	var rPhi, rPsi float64
	for _, c := range frontier {
		rPhi = math.Max(rPhi, math.Abs(c.Phi))
		rPsi = math.Max(rPsi, math.Abs(c.Psi))
	}
	prev := int64(len(frontier))
	for ; n <= maxShell; n++ {
		offs, err := accepted(gen, f, n)
		if err != nil {
			return 0, err
		}
		var dPhi, dPsi float64
		for _, o := range offs {
			dPhi = math.Max(dPhi, math.Abs(o.DPhi))
			dPsi = math.Max(dPsi, math.Abs(o.DPsi))
		}
		rPhi += dPhi
		rPsi += dPsi

		box := (2*rPhi + 1) * (2*rPsi + 1)
		shell := satMul(prev, int64(len(offs)))
		if box < float64(shell) {
			shell = int64(box)
		}
		total = satAdd(total, shell)
		prev = shell
	}
	return total, nil
}

// accepted returns the Dual offsets for shell n that the filter lets through.
// Acceptance depends only on the index pair, so it is decided once per shell.
func accepted(gen generator, f Filter, n int) ([]offset, error) {
	offs, err := gen.offsets(n, graph.ModeDual)
	if err != nil {
		return nil, err
	}
	if !f.Enabled() {
		return offs, nil
	}
	kept := offs[:0]
	for _, o := range offs {
		if f.Valid(o.M, o.K) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

func satMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxAddressable/b {
		return maxAddressable
	}
	return a * b
}

func satAdd(a, b int64) int64 {
	if a > maxAddressable-b {
		return maxAddressable
	}
	return a + b
}
