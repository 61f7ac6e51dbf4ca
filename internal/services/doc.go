// Package services defines shared vocabulary consumed by the daemon core and
// the external collaborator adapters.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures so the
//     cycle controller can classify them (retry vs partial vs fatal).
//   - Context helpers that stamp run IDs, cycle numbers, and correlation
//     identifiers for logging and tracing.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability, retries) stays uniform across the daemon.
package services
