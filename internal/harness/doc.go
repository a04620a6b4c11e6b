// Package harness runs YAML scenarios against a real engine.
//
// # Scenario Format
//
//	name: saturation
//	description: "Two shells fill completely in two ticks"
//	config:                 # or config_file: path/to/config.cue
//	  max_shell: 2
//	  saturation_threshold: 1
//	archive: true           # save the run to an in-memory archive
//	run_id: sat-1           # fixed run id for the archive
//	ops:
//	  - op: step
//	    count: 2
//	  - op: propagate
//	    node: 0
//	    mode: Dual
//	    expect:
//	      error: invalid_node_state
//	  - op: reset
//	assertions:
//	  - type: total_nodes
//	    equals: 1
//	  - type: regime
//	    regime: Quantum
//
// The config block is validated by the same CUE schema as configuration
// files, so omitted keys take the engine defaults.
//
// # Assertion Types
//
//   - total_nodes, total_edges, nash_points, destructive, tick, history_length:
//     compare a count with equals
//   - coverage: bounds the live coverage with min and/or max
//   - regime: compares the live regime
//   - all_invariant_valid: every stored node passed the invariant filter
//   - query_count: counts live nodes matching filter
//   - archived_query_count: counts archived nodes matching filter (needs archive)
//   - replay_verified: replays the journal and compares snapshot digests;
//     with archive it replays the archived copy
//
// # Deterministic Testing
//
// Scenarios run with a fixed run id (testutil.FixedRunID) and a stepping
// wall clock (testutil.StepClock), and the engine itself is deterministic,
// so the trace of a scenario is byte-identical across runs. Golden files
// under testdata/golden pin those traces.
package harness
