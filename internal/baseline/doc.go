// Package baseline persists the last successfully synchronized state of the
// monitored tree in SQLite, alongside a journal of sync attempts.
//
// The Store manages the database connection, schema migrations, the
// path-to-record baseline mapping, and the sync_history journal that backs
// the history command and status totals. Each path appears at most once;
// ReplaceAll swaps the whole baseline after a clean sync while Apply moves
// only the accepted subset after a partial one.
//
// Exactly one daemon writes the store at a time; the process lock enforces
// that before the store is ever opened. Schema changes go through numbered
// files in migrations/.
package baseline
