package change

import (
	"fmt"
	"sort"

	"shuttle/internal/scan"
)

// ChangeSet holds the paths whose state differs between a scan snapshot and
// the baseline. The three sets are disjoint and sorted. A ChangeSet is built
// once per cycle and never mutated afterwards.
type ChangeSet struct {
	Added    []string
	Modified []string
	Removed  []string
}

// IsEmpty reports whether the cycle found no differences.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Total returns the number of paths across all three sets.
func (c ChangeSet) Total() int {
	return len(c.Added) + len(c.Modified) + len(c.Removed)
}

// Summary renders a compact counts string for log lines.
func (c ChangeSet) Summary() string {
	return fmt.Sprintf("%d added, %d modified, %d removed", len(c.Added), len(c.Modified), len(c.Removed))
}

// Detect compares a fresh snapshot against the baseline mapping and returns
// the differences. A path counts as modified only when its content
// fingerprint differs; size and modification time are ignored. An empty
// baseline yields every snapshot path as added, which is how the first run
// establishes its baseline.
func Detect(current *scan.Snapshot, baseline map[string]scan.FileRecord) ChangeSet {
	var set ChangeSet

	for path, record := range current.Files {
		previous, known := baseline[path]
		switch {
		case !known:
			set.Added = append(set.Added, path)
		case previous.Fingerprint != record.Fingerprint:
			set.Modified = append(set.Modified, path)
		}
	}
	for path := range baseline {
		if _, present := current.Files[path]; !present {
			set.Removed = append(set.Removed, path)
		}
	}

	sort.Strings(set.Added)
	sort.Strings(set.Modified)
	sort.Strings(set.Removed)
	return set
}
