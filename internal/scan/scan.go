package scan

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"

	"shuttle/internal/services"
)

// Run walks the tree rooted at root and returns a Snapshot describing every
// regular file found. Unreadable or vanished files are skipped and recorded
// as warnings; only a missing or unreadable root aborts the scan. Scanning
// an unchanged tree twice yields identical fingerprints.
func Run(ctx context.Context, root string, opts ...Option) (*Snapshot, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "scan", "resolve", "resolve root path", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "scan", "stat", fmt.Sprintf("monitored root %s is not accessible", absRoot), err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrFilesystem, "scan", "stat", fmt.Sprintf("monitored root %s is not a directory", absRoot), nil)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	snapshot := &Snapshot{
		Files:     make(map[string]FileRecord),
		StartedAt: start,
	}

	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == absRoot {
			if err != nil {
				return err
			}
			return nil
		}

		rel := relativeSlashPath(absRoot, path)
		if err != nil {
			// Directory read or lstat failure below the root: note it and
			// keep walking the rest of the tree.
			snapshot.Warnings = append(snapshot.Warnings, Warning{Path: rel, Reason: err.Error()})
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if o.shouldExclude(rel, entry.IsDir()) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		fileInfo, err := entry.Info()
		if err != nil {
			snapshot.Warnings = append(snapshot.Warnings, Warning{Path: rel, Reason: err.Error()})
			return nil
		}
		if o.maxFileSize > 0 && fileInfo.Size() > o.maxFileSize {
			snapshot.Warnings = append(snapshot.Warnings, Warning{
				Path:   rel,
				Reason: fmt.Sprintf("file exceeds size limit (%d > %d bytes)", fileInfo.Size(), o.maxFileSize),
			})
			return nil
		}

		fingerprint, err := hashFile(path)
		if err != nil {
			snapshot.Warnings = append(snapshot.Warnings, Warning{Path: rel, Reason: err.Error()})
			return nil
		}

		normalized := norm.NFC.String(rel)
		snapshot.Files[normalized] = FileRecord{
			Path:        normalized,
			Fingerprint: fingerprint,
			Size:        fileInfo.Size(),
			ModifiedAt:  fileInfo.ModTime().UTC(),
		}
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		return nil, services.Wrap(services.ErrFilesystem, "scan", "walk", "walk monitored root", walkErr)
	}

	snapshot.Duration = time.Since(start)
	return snapshot, nil
}

// hashFile computes the hex-encoded BLAKE3-256 digest of a file's contents.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := blake3.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func relativeSlashPath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		rel = target
	}
	return filepath.ToSlash(rel)
}
