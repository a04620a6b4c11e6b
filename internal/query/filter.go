package query

import (
	"fmt"

	"github.com/roach88/wavegrid/internal/graph"
)

// NodeFilter selects nodes. Omitted (nil) fields are unconstrained; set
// fields are combined with AND. Ranges are inclusive.
type NodeFilter struct {
	States      []graph.State `json:"states,omitempty" yaml:"states,omitempty"`
	Stable      *bool         `json:"stable,omitempty" yaml:"stable,omitempty"`
	MinDepth    *int          `json:"min_depth,omitempty" yaml:"min_depth,omitempty"`
	MaxDepth    *int          `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	CreatedFrom *int64        `json:"created_from,omitempty" yaml:"created_from,omitempty"`
	CreatedTo   *int64        `json:"created_to,omitempty" yaml:"created_to,omitempty"`
}

// Validate rejects filters that can never be evaluated meaningfully:
// unknown states and negative depths. Empty ranges (min > max) are allowed
// and simply match nothing.
func (f NodeFilter) Validate() error {
	for _, s := range f.States {
		if !s.Valid() {
			return fmt.Errorf("unknown node state %q", s)
		}
	}
	if f.MinDepth != nil && *f.MinDepth < 0 {
		return fmt.Errorf("min_depth must be >= 0, got %d", *f.MinDepth)
	}
	if f.MaxDepth != nil && *f.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", *f.MaxDepth)
	}
	return nil
}

// Predicate compiles the filter into a predicate tree.
// A filter with no fields set compiles to an empty And (match everything).
func (f NodeFilter) Predicate() Predicate {
	var preds []Predicate
	if f.States != nil {
		preds = append(preds, StateIn{States: f.States})
	}
	if f.Stable != nil {
		preds = append(preds, Stable{Value: *f.Stable})
	}
	if f.MinDepth != nil || f.MaxDepth != nil {
		preds = append(preds, DepthRange{Min: f.MinDepth, Max: f.MaxDepth})
	}
	if f.CreatedFrom != nil || f.CreatedTo != nil {
		preds = append(preds, CreatedRange{From: f.CreatedFrom, To: f.CreatedTo})
	}
	return And{Predicates: preds}
}

// Match evaluates p against n.
func Match(p Predicate, n graph.Node) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case StateIn:
		return stateIn(pred.States, n.State)
	case *StateIn:
		return stateIn(pred.States, n.State)
	case Stable:
		return n.NashPoint == pred.Value
	case *Stable:
		return n.NashPoint == pred.Value
	case DepthRange:
		return inRange(int64(n.Depth), toInt64(pred.Min), toInt64(pred.Max))
	case *DepthRange:
		return inRange(int64(n.Depth), toInt64(pred.Min), toInt64(pred.Max))
	case CreatedRange:
		return inRange(n.CreatedAt, pred.From, pred.To)
	case *CreatedRange:
		return inRange(n.CreatedAt, pred.From, pred.To)
	case And:
		return matchAll(pred.Predicates, n)
	case *And:
		return matchAll(pred.Predicates, n)
	default:
		return false
	}
}

// Apply returns the nodes matching p, in input order.
func Apply(p Predicate, nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, 0)
	for _, n := range nodes {
		if Match(p, n) {
			out = append(out, n)
		}
	}
	return out
}

func matchAll(preds []Predicate, n graph.Node) bool {
	for _, p := range preds {
		if !Match(p, n) {
			return false
		}
	}
	return true
}

func stateIn(states []graph.State, s graph.State) bool {
	for _, want := range states {
		if want == s {
			return true
		}
	}
	return false
}

func inRange(v int64, lo, hi *int64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func toInt64(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

// Ptr returns a pointer to v. Convenience for building filters.
func Ptr[T any](v T) *T {
	return &v
}
