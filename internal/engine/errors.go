package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/wavegrid/internal/graph"
)

// ConfigError reports an invalid engine configuration. It is returned by New
// before any node exists.
type ConfigError struct {
	// Field is the config key (snake_case, as in config files).
	Field string

	// Value is the offending value.
	Value any

	// Reason is a short human-readable constraint, e.g. "must be > 0".
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NodeNotFoundError is returned when Propagate names an id that is not in
// the store.
type NodeNotFoundError struct {
	ID graph.NodeID
}

// Error implements the error interface.
func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID)
}

// InvalidNodeStateError is returned when Propagate is called on a node that
// is not Active. It is a hard failure rather than a no-op so that callers
// propagating from stale ids find out.
type InvalidNodeStateError struct {
	ID    graph.NodeID
	State graph.State
}

// Error implements the error interface.
func (e *InvalidNodeStateError) Error() string {
	return fmt.Sprintf("node %s is %s, want %s", e.ID, e.State, graph.StateActive)
}

// ReplayMismatchError is returned by VerifyReplay when a replayed snapshot
// does not match the recorded one.
type ReplayMismatchError struct {
	Tick int64
	Want string
	Got  string
}

// Error implements the error interface.
func (e *ReplayMismatchError) Error() string {
	if e.Want == "" || e.Got == "" {
		return fmt.Sprintf("replay diverged at tick %d: snapshot missing (want %q, got %q)", e.Tick, e.Want, e.Got)
	}
	return fmt.Sprintf("replay diverged at tick %d: digest %s != %s", e.Tick, e.Got, e.Want)
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNodeNotFound reports whether err is (or wraps) a *NodeNotFoundError.
func IsNodeNotFound(err error) bool {
	var nf *NodeNotFoundError
	return errors.As(err, &nf)
}

// IsInvalidNodeState reports whether err is (or wraps) an *InvalidNodeStateError.
func IsInvalidNodeState(err error) bool {
	var is *InvalidNodeStateError
	return errors.As(err, &is)
}

// IsReplayMismatch reports whether err is (or wraps) a *ReplayMismatchError.
func IsReplayMismatch(err error) bool {
	var rm *ReplayMismatchError
	return errors.As(err, &rm)
}
