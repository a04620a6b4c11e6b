package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wavegrid/internal/config"
	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/query"
)

// Scenario is a scripted engine session with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config holds engine configuration keys. Validated by the config
	// schema; omitted keys take defaults.
	Config map[string]any `yaml:"config,omitempty"`

	// ConfigFile is a configuration file path, relative to the scenario
	// file. Mutually exclusive with Config.
	ConfigFile string `yaml:"config_file,omitempty"`

	// Archive saves the finished run to an in-memory archive before the
	// assertions run.
	Archive bool `yaml:"archive,omitempty"`

	// RunID is the fixed archive run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Ops are executed in order.
	Ops []Op `yaml:"ops"`

	// Assertions are checked after the last op.
	Assertions []Assertion `yaml:"assertions"`
}

// Op kinds.
const (
	OpStep      = "step"
	OpPropagate = "propagate"
	OpReset     = "reset"
)

// Op is one scripted engine call.
type Op struct {
	// Op is step, propagate or reset.
	Op string `yaml:"op"`

	// Count repeats a step. Zero means once.
	Count int `yaml:"count,omitempty"`

	// Node and Mode select the propagation. An empty mode uses the
	// configuration's default mode.
	Node graph.NodeID `yaml:"node,omitempty"`
	Mode string       `yaml:"mode,omitempty"`

	// Expect checks the propagation's wave event.
	Expect *OpExpect `yaml:"expect,omitempty"`
}

// Error codes for OpExpect.Error and TraceEvent.Error.
const (
	ErrCodeNodeNotFound     = "node_not_found"
	ErrCodeInvalidNodeState = "invalid_node_state"
	ErrCodeOther            = "error"
)

// OpExpect is a subset match on a propagation outcome.
type OpExpect struct {
	Spawned    *int `yaml:"spawned,omitempty"`
	Created    *int `yaml:"created,omitempty"`
	Rejected   *int `yaml:"rejected,omitempty"`
	Collisions *int `yaml:"collisions,omitempty"`

	// Error is the expected error code. When set, the call must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion type constants.
const (
	AssertTotalNodes         = "total_nodes"
	AssertTotalEdges         = "total_edges"
	AssertNashPoints         = "nash_points"
	AssertDestructive        = "destructive"
	AssertTick               = "tick"
	AssertHistoryLength      = "history_length"
	AssertCoverage           = "coverage"
	AssertRegime             = "regime"
	AssertAllInvariantValid  = "all_invariant_valid"
	AssertQueryCount         = "query_count"
	AssertArchivedQueryCount = "archived_query_count"
	AssertReplayVerified     = "replay_verified"
)

// Assertion validates the final engine (or archive) state.
type Assertion struct {
	Type string `yaml:"type"`

	// Equals is the expected count for count assertions.
	Equals *int `yaml:"equals,omitempty"`

	// Min and Max bound coverage, inclusive.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Regime is the expected regime name.
	Regime graph.Regime `yaml:"regime,omitempty"`

	// Filter selects nodes for query_count and archived_query_count.
	Filter *query.NodeFilter `yaml:"filter,omitempty"`

	// Tick selects the archived snapshot. Nil means the latest.
	Tick *int64 `yaml:"tick,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative
// config_file is resolved against the scenario's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving config_file against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.ConfigFile != "" && !filepath.IsAbs(s.ConfigFile) && basePath != "" {
		s.ConfigFile = filepath.Join(basePath, s.ConfigFile)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// EngineConfig resolves the scenario's engine configuration through the
// config schema.
func (s *Scenario) EngineConfig() (engine.Config, error) {
	if s.ConfigFile != "" {
		return config.Load(s.ConfigFile)
	}
	var data []byte
	if len(s.Config) > 0 {
		var err error
		if data, err = yaml.Marshal(s.Config); err != nil {
			return engine.Config{}, fmt.Errorf("encode config: %w", err)
		}
	}
	return config.Parse(data, config.FormatYAML)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Ops) == 0 {
		return fmt.Errorf("ops list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.ConfigFile != "" && len(s.Config) > 0 {
		return fmt.Errorf("config and config_file are mutually exclusive")
	}
	if s.ConfigFile != "" {
		if _, err := os.Stat(s.ConfigFile); err != nil {
			return fmt.Errorf("config file not found: %s", s.ConfigFile)
		}
	}

	for i, op := range s.Ops {
		if err := validateOp(i, op); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s.Archive); err != nil {
			return err
		}
	}
	return nil
}

func validateOp(i int, op Op) error {
	if op.Count < 0 {
		return fmt.Errorf("ops[%d]: count must be non-negative", i)
	}
	switch op.Op {
	case OpStep, OpReset:
		if op.Expect != nil {
			return fmt.Errorf("ops[%d]: expect is only valid for propagate", i)
		}
	case OpPropagate:
		if op.Mode != "" {
			if _, err := graph.ParseMode(op.Mode); err != nil {
				return fmt.Errorf("ops[%d]: %w", i, err)
			}
		}
		if op.Expect != nil {
			switch op.Expect.Error {
			case "", ErrCodeNodeNotFound, ErrCodeInvalidNodeState, ErrCodeOther:
			default:
				return fmt.Errorf("ops[%d].expect: unknown error code %q", i, op.Expect.Error)
			}
		}
	case "":
		return fmt.Errorf("ops[%d]: op is required", i)
	default:
		return fmt.Errorf("ops[%d]: unknown op %q", i, op.Op)
	}
	return nil
}

func validateAssertion(i int, a Assertion, archive bool) error {
	switch a.Type {
	case AssertTotalNodes, AssertTotalEdges, AssertNashPoints, AssertDestructive,
		AssertTick, AssertHistoryLength:
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", i, a.Type)
		}
	case AssertCoverage:
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for coverage", i)
		}
	case AssertRegime:
		if a.Regime == "" {
			return fmt.Errorf("assertions[%d]: regime is required for regime", i)
		}
	case AssertAllInvariantValid, AssertReplayVerified:
	case AssertQueryCount, AssertArchivedQueryCount:
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", i, a.Type)
		}
		if a.Filter != nil {
			if err := a.Filter.Validate(); err != nil {
				return fmt.Errorf("assertions[%d]: %w", i, err)
			}
		}
		if a.Type == AssertArchivedQueryCount && !archive {
			return fmt.Errorf("assertions[%d]: archived_query_count requires archive: true", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
