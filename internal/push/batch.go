package push

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"shuttle/internal/change"
	"shuttle/internal/logging"
	"shuttle/internal/scan"
	"shuttle/internal/services"
	"shuttle/internal/services/remote"
)

// buildBatch turns a changeset into wire items, reading file content from
// the monitored root. Paths that cannot be read anymore are skipped; the
// next scan reconciles them.
func (e *Engine) buildBatch(ctx context.Context, snapshot *scan.Snapshot, set change.ChangeSet) (remote.Batch, []string) {
	runID, _ := services.RunIDFromContext(ctx)
	cycleID, _ := services.CycleIDFromContext(ctx)
	batch := remote.Batch{
		RunID:   runID,
		CycleID: cycleID,
		SentAt:  e.now().UTC(),
	}
	var skipped []string

	appendItem := func(path string, action remote.Action) {
		record, ok := snapshot.Files[path]
		if !ok {
			skipped = append(skipped, path)
			return
		}
		content, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(path)))
		if err != nil {
			e.logger.Warn("skipping unreadable path",
				logging.String("path", path),
				logging.Error(err))
			skipped = append(skipped, path)
			return
		}
		batch.Items = append(batch.Items, remote.Item{
			Path:        path,
			Action:      action,
			Fingerprint: record.Fingerprint,
			Size:        record.Size,
			ModifiedAt:  record.ModifiedAt.UTC(),
			Content:     content,
		})
	}

	for _, path := range set.Added {
		appendItem(path, remote.ActionAdd)
	}
	for _, path := range set.Modified {
		appendItem(path, remote.ActionUpdate)
	}
	for _, path := range set.Removed {
		batch.Items = append(batch.Items, remote.Item{
			Path:       path,
			Action:     remote.ActionDelete,
			ModifiedAt: time.Time{},
		})
	}
	return batch, skipped
}
