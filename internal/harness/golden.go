package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wavegrid/internal/graph"
)

// TraceSnapshot is the golden form of a scenario execution.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	RunID    string       `json:"run_id,omitempty"`
	Trace    []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for graph.MarshalCanonical, which
// only takes maps, slices and integers. Keys irrelevant to an op are left
// out rather than zeroed.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":         ev.Seq,
			"op":          ev.Op,
			"tick":        ev.Tick,
			"total_nodes": ev.TotalNodes,
			"coverage":    ev.Coverage,
			"regime":      string(ev.Regime),
		}
		switch ev.Op {
		case OpStep:
			m["collision_events"] = ev.CollisionEvents
		case OpPropagate:
			m["node"] = ev.Node
			m["mode"] = string(ev.Mode)
			if ev.Error != "" {
				m["error"] = ev.Error
			} else {
				m["spawned"] = ev.Spawned
				m["created"] = ev.Created
				m["rejected"] = ev.Rejected
				m["collisions"] = ev.Collisions
			}
		}
		trace[i] = m
	}

	out := map[string]any{
		"scenario": s.Scenario,
		"trace":    trace,
	}
	if s.RunID != "" {
		out["run_id"] = s.RunID
	}
	return out
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(name string, r *Result) ([]byte, error) {
	snap := TraceSnapshot{Scenario: name, RunID: r.RunID, Trace: r.Trace}
	return graph.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}
	newGoldie(t).Assert(t, name, data)
	return nil
}

// AssertExportGolden compares an export payload, as indented JSON, against
// testdata/golden/{name}.golden.
func AssertExportGolden(t *testing.T, name string, export graph.Export) error {
	t.Helper()

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	newGoldie(t).Assert(t, name, append(data, '\n'))
	return nil
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
