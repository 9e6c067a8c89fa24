// Package pipeline is the production orchestrator core: the gate
// evaluator that decides whether a phase's exit criteria are met, the
// dispatcher that launches at most one remediation task per entry, the
// advancer that moves entities into their next phase, and the
// orchestrator that ties them together under the periodic tick.
//
// The phase store is the single source of truth. The in-memory work
// registry exists only to prevent duplicate concurrent dispatch and is
// deliberately lost on restart; remediation actions must tolerate being
// triggered again.
package pipeline
