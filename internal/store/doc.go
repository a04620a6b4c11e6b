// Package store archives engine runs in SQLite.
//
// A run is the full output of one engine session:
//   - runs: one row per run, with its configuration and headline figures
//   - snapshots: one row per tick, with the snapshot digest and statistics
//   - nodes: every node of every snapshot
//   - edges: the run's final edge list; snapshot N sees the first edge_count rows
//   - journal: the ordered operations that produced the run
//
// # Critical Patterns
//
// Logical ordering:
//   - All ordering uses tick and seq, NEVER timestamps
//   - created_at is informational only
//
// Deterministic query results:
//   - Node queries end in ORDER BY id ASC, matching the engine's own order
//   - A loaded snapshot re-hashes to its stored digest
//
// Whole-run writes:
//   - SaveRun writes a run in one transaction; a reader sees all of it or none
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: DeleteRun cascades to every child table
package store
