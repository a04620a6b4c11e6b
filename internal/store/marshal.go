package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
)

// Configs and statistics carry floats, so they are stored as plain JSON
// rather than canonical JSON. encoding/json writes the shortest
// representation that round-trips exactly.

func marshalConfig(cfg engine.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func unmarshalConfig(s string) (engine.Config, error) {
	var cfg engine.Config
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return engine.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func marshalStatistics(st graph.Statistics) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("marshal statistics: %w", err)
	}
	return string(data), nil
}

func unmarshalStatistics(s string) (graph.Statistics, error) {
	var st graph.Statistics
	if err := json.Unmarshal([]byte(s), &st); err != nil {
		return graph.Statistics{}, fmt.Errorf("unmarshal statistics: %w", err)
	}
	return st, nil
}

// SQLite has no boolean type.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
