// Package cycle drives the monitoring loop at the heart of the daemon: scan
// the tree, diff against the baseline, push what changed, wait, repeat. The
// controller owns the baseline store and all transitions between phases,
// including capped exponential backoff after transient failures.
package cycle
