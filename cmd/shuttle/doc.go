// Package main hosts the Shuttle CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, sync triggers, baseline and journal inspection, log
// tailing, and configuration scaffolding. It centralizes configuration
// resolution and control socket discovery so subcommands can focus on user
// experience instead of wiring. Commands that read state fall back to the
// baseline database and log file directly when no daemon is listening.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
