// Package main hosts the showrunner CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// one-shot pipeline operations: status and summary projections, enable
// and disable toggles, project initialization, manual ticks, phase
// overrides, database health checks, and configuration scaffolding.
// Commands open the same SQLite database the daemon uses; WAL mode makes
// that safe.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands or
// flags here.
package main
