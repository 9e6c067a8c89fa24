// Package logging centralizes slog construction and shared attribute
// helpers for showrunner. All components receive a *slog.Logger from the
// entrypoint; nothing in this repository logs through a package-level
// default. Console output is for interactive use, JSON for the daemon.
package logging
