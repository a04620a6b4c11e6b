package engine

import (
	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/sequence"
)

// candidate is a staged child coordinate with the offset that produced it.
type candidate struct {
	Coord  coord.Coordinate
	Offset offset
	Valid  bool
}

// Filter is the Cassini invariant filter.
//
// A candidate is valid when its generating index pair (m, k) satisfies
//
//	L(m)·L(k) − 5·F(m)·F(k) = 2·(−1)^k · L(m−k)
//
// When enabled, invalid candidates are dropped. When disabled, every
// candidate passes and Valid only records the outcome.
type Filter struct {
	enabled bool
	oracle  *sequence.Oracle
}

// NewFilter returns a filter backed by oracle.
func NewFilter(enabled bool, oracle *sequence.Oracle) Filter {
	return Filter{enabled: enabled, oracle: oracle}
}

// Enabled reports whether the filter gates insertion.
func (f Filter) Enabled() bool {
	return f.enabled
}

// Valid reports whether the index pair satisfies the identity.
func (f Filter) Valid(m, k int) bool {
	return f.oracle.CassiniPair(m, k)
}

// Accept marks each candidate's validity and returns the ones that may be
// inserted, plus the number rejected.
func (f Filter) Accept(cands []candidate) ([]candidate, int) {
	kept := cands[:0]
	rejected := 0
	for _, c := range cands {
		c.Valid = f.Valid(c.Offset.M, c.Offset.K)
		if f.enabled && !c.Valid {
			rejected++
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}
