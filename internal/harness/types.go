package harness

import (
	"github.com/roach88/wavegrid/internal/graph"
)

// TraceEvent records one executed operation and the state right after it.
type TraceEvent struct {
	Seq int    `json:"seq"`
	Op  string `json:"op"`

	// propagate only
	Node       graph.NodeID `json:"node,omitempty"`
	Mode       graph.Mode   `json:"mode,omitempty"`
	Spawned    int          `json:"spawned,omitempty"`
	Created    int          `json:"created,omitempty"`
	Rejected   int          `json:"rejected,omitempty"`
	Collisions int          `json:"collisions,omitempty"`
	Error      string       `json:"error,omitempty"`

	// step only: collisions since the previous snapshot
	CollisionEvents int `json:"collision_events,omitempty"`

	Tick       int64        `json:"tick"`
	TotalNodes int          `json:"total_nodes"`
	Coverage   string       `json:"coverage"` // occupied/addressable
	Regime     graph.Regime `json:"regime"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every op expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per executed op, with step counts expanded.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID is the archive id, when the scenario archives its run.
	RunID string `json:"run_id,omitempty"`

	// Final is the engine's statistics after the last op.
	Final graph.Statistics `json:"final"`

	// Export is the engine's visualization payload after the last op.
	Export graph.Export `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
