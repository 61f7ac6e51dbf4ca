// Package scan walks the monitored directory tree and fingerprints its
// contents.
//
// A scan pass produces a Snapshot: one FileRecord per regular file, keyed by
// the NFC-normalized relative path, carrying a BLAKE3 content fingerprint.
// Content hashing is deliberate; modification times move when files are
// touched, copied, or restored from backup without their bytes changing, and
// the change detector must not report those as modifications.
//
// Unreadable or vanished files never abort a pass. They are skipped and
// reported as warnings so one bad permission bit cannot stall
// synchronization of the rest of the tree. Exclusion patterns keep
// version-control metadata and the daemon's own state out of the snapshot.
package scan
