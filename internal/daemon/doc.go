// Package daemon coordinates the long-running Shuttle process and system
// integration points.
//
// It wires configuration, the baseline store, and the cycle controller into a
// single lifecycle with flock-based locking to prevent multiple instances. The
// daemon owns the health watchdog and exposes the status, history, and trigger
// operations the IPC surface serves.
//
// Keep orchestration logic here: scanning, change detection, and pushing live
// in their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
