// Package daemon hosts the long-running showrunner process. It enforces
// single-instance execution with a lock file and drives the periodic tick
// and index refresh loops against the pipeline orchestrator.
package daemon
