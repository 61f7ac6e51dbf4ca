// Package config loads, normalizes, and validates the TOML configuration for
// the shuttle daemon.
//
// Load resolves the config path (flag, SHUTTLE_CONFIG, the default user
// location, then a project-local shuttle.toml), decodes it over the
// repository defaults, expands paths, applies environment overrides
// (SHUTTLE_ROOT, SHUTTLE_INTERVAL, SHUTTLE_TOKEN), and validates the result.
// Callers receive a fully resolved Config they can trust without re-checking
// individual fields.
package config
