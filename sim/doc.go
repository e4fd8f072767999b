// Package sim provides the core pathway decision engine: a batch-synchronous
// simulation that advances patients through a network of service points under
// per-period capacity constraints.
//
// # Reading Guide
//
// Start with these three files to understand the engine kernel:
//   - patient.go: Patient lifecycle (arrived → active → terminal) and the append-only history
//   - decision.go: Decision, actions, and the rationale entries that make decisions auditable
//   - engine.go: The step loop — Collect, Evaluate, Admit, Commit, terminal check
//
// # Architecture
//
// The sim package defines the engine and its extension points; supporting code
// lives in sub-packages:
//   - sim/scenario/: YAML scenario bundles, validation, and engine assembly
//   - sim/feed/: arrival feeds (CSV), capacity feeds, and synthetic cohorts
//   - sim/report/: event logs, decision exports, prioritisation lists,
//     investment recommendations, scenario comparison
//
// # Key Interfaces
//
// The extension points are single-method or small interfaces:
//   - Rule: score one patient against an immutable system snapshot
//   - Combiner: fold per-rule contributions into a single priority score
//
// New rules and combiners are registered by name (rules.go, combine.go) and
// selected by scenario configuration, never by branching inside the engine.
package sim
