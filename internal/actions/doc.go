// Package actions maps each pipeline phase to its remediation: one
// opaque asynchronous call against a compute backend. Actions carry their
// own timeouts, tolerate re-triggering after a crash, and report plain
// errors; retry cadence belongs to the orchestrator's tick, never to the
// action itself.
package actions
