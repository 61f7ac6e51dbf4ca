package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

// mirrorClient replicates the monitored tree into a local destination
// directory. It exists for debug runs and end-to-end tests: every push is
// observable on disk without a network or a server.
type mirrorClient struct {
	dir string
}

func newMirrorClient(cfg *config.Config) *mirrorClient {
	return &mirrorClient{dir: cfg.Remote.MirrorDir}
}

func (c *mirrorClient) Name() string { return "mirror" }

// Authenticate verifies the destination directory is usable.
func (c *mirrorClient) Authenticate(ctx context.Context) (Session, error) {
	if c.dir == "" {
		return Session{}, services.Wrap(services.ErrAuthFailed, "remote", "authenticate", "mirror directory is not configured", nil)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Session{}, services.Wrap(services.ErrAuthFailed, "remote", "authenticate", fmt.Sprintf("mirror directory %s is not writable", c.dir), err)
	}
	return Session{Token: "mirror"}, nil
}

// Push applies each item to the mirror directory. Adds and updates are
// written atomically via a temp file and rename; deletes remove the mirrored
// path. Individual failures become rejections so the accepted subset still
// commits to the baseline.
func (c *mirrorClient) Push(ctx context.Context, session Session, batch Batch) (Receipt, error) {
	if session.Token == "" {
		return Receipt{}, services.Wrap(services.ErrAuthFailed, "remote", "push", "mirror session missing", nil)
	}

	var receipt Receipt
	for _, item := range batch.Items {
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		default:
		}

		if err := c.apply(item); err != nil {
			receipt.Rejected = append(receipt.Rejected, Rejection{Path: item.Path, Reason: err.Error()})
			continue
		}
		receipt.Accepted = append(receipt.Accepted, item.Path)
	}

	switch {
	case len(receipt.Rejected) == 0:
		return receipt, nil
	case len(receipt.Accepted) == 0:
		return receipt, services.Wrap(services.ErrTransient, "remote", "push", fmt.Sprintf("mirror rejected all %d paths", len(receipt.Rejected)), nil)
	default:
		return receipt, services.Wrap(services.ErrPartialSync, "remote", "push", fmt.Sprintf("mirror rejected %d of %d paths", len(receipt.Rejected), len(batch.Items)), nil)
	}
}

func (c *mirrorClient) apply(item Item) error {
	target := filepath.Join(c.dir, filepath.FromSlash(item.Path))

	if item.Action == ActionDelete {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", item.Path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", item.Path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".shuttle-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", item.Path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(item.Content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", item.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", item.Path, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename %s: %w", item.Path, err)
	}
	return nil
}
