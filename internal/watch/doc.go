// Package watch turns filesystem notifications into early scan triggers.
//
// A Watcher keeps recursive fsnotify watches on the monitored tree, using the
// same exclusion rules as the scanner, and collapses bursts of events into a
// single callback once activity has been quiet for the debounce window. The
// callback wakes the cycle controller so changes are picked up ahead of the
// next interval tick; change detection itself stays with the scanner, which
// treats a triggered scan exactly like a scheduled one.
package watch
