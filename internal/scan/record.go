package scan

import (
	"sort"
	"time"
)

// FileRecord captures the observed state of one regular file at scan time.
// Path is relative to the scanned root, slash-separated, and normalized to
// NFC so the same name compares equal regardless of the filesystem's
// preferred Unicode form. Fingerprint is the hex-encoded BLAKE3 digest of
// the full file content; size and modification time are carried for
// reporting but never decide whether a file changed.
type FileRecord struct {
	Path        string
	Fingerprint string
	Size        int64
	ModifiedAt  time.Time
}

// Warning records a path the scanner had to skip and why. Warnings never
// abort a scan; callers surface them in logs and status output.
type Warning struct {
	Path   string
	Reason string
}

// Snapshot is the result of one complete scan pass.
type Snapshot struct {
	Files     map[string]FileRecord
	Warnings  []Warning
	StartedAt time.Time
	Duration  time.Duration
}

// Paths returns the recorded paths in sorted order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for path := range s.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Count returns the number of files in the snapshot.
func (s *Snapshot) Count() int {
	return len(s.Files)
}

// TotalBytes sums the sizes of every recorded file.
func (s *Snapshot) TotalBytes() int64 {
	var total int64
	for _, record := range s.Files {
		total += record.Size
	}
	return total
}
