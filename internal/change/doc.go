// Package change computes the difference between a scan snapshot and the
// last synchronized baseline.
//
// Detection is pure: no I/O, no clocks. A file is modified only when its
// content fingerprint differs from the baseline record, so touched or
// re-copied files with identical bytes never produce spurious work for the
// sync engine.
package change
