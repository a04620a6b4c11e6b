package engine

import (
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/query"
)

// QueryNodes returns copies of the live nodes matching every set field of f,
// in id order.
func (e *Engine) QueryNodes(f query.NodeFilter) []graph.Node {
	return e.Query(f.Predicate())
}

// Query returns copies of the live nodes matching p, in id order.
func (e *Engine) Query(p query.Predicate) []graph.Node {
	return query.Apply(p, e.nodes)
}
