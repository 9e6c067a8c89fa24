// Package config loads, validates, and normalizes showrunner's TOML
// configuration. Defaults apply when no file is present so the daemon can
// start with nothing but a writable home directory.
package config
