// Package logging assembles structured slog loggers and formatting helpers
// used across the shuttle daemon.
//
// It owns the console/JSON handlers, the rotating daily file sink, and
// context-aware helpers so daemon code can automatically tag log lines with
// run IDs, cycle numbers, and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape and routing guarantees as the rest of the
// system.
package logging
