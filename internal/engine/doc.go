// Package engine implements the wave propagation engine.
//
// The engine grows a graph of event nodes from a single origin. Each
// propagation call takes an Active node, generates offset candidates from
// the Fibonacci and/or Lucas sequences, drops candidates whose generating
// indices fail the Cassini identity, and resolves the survivors against the
// quantized address space. Candidates landing on an occupied cell collide
// instead of duplicating; collisions classify interference by phase.
//
// ARCHITECTURE:
//
// Single-Writer Engine:
// Propagate, Step and Reset are the only mutators and must not run
// concurrently. Everything is synchronous and CPU-bound; no call blocks, so
// there is no context or cancellation.
//
// Per-call data flow:
//  1. generator builds offsets for shell depth(parent)+1
//  2. Filter marks validity and drops failures (pass-through when disabled)
//  3. resolve stages inserts, collisions and edges
//  4. commit applies the stage; nothing before it mutates the store
//  5. track refreshes coverage and the backpressure flag
//
// Per-tick (Step):
//  1. tick advances
//  2. every node Active at tick start propagates with the default mode
//  3. saturation pass moves Active nodes to Saturated at capacity
//  4. snapshot appended, observers notified, Step journaled
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Ticks and journal sequence numbers come from Clock. No wall-clock time
// enters engine state.
//
// Quantized Identity:
// Coordinates are never compared as floats. Every dedup and digest goes
// through coord.Quantizer at the configured tolerance.
//
// Deterministic Ordering:
// Nodes propagate in ascending id order, candidates in generator order.
// Same configuration plus same call sequence gives the same history.
package engine
