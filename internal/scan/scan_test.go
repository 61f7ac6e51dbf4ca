package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"shuttle/internal/scan"
	"shuttle/internal/services"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func TestRunFingerprintsTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "docs/b.txt", "world")

	snapshot, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if snapshot.Count() != 2 {
		t.Fatalf("expected 2 files, got %d", snapshot.Count())
	}
	if got := snapshot.Paths(); !reflect.DeepEqual(got, []string{"a.txt", "docs/b.txt"}) {
		t.Fatalf("unexpected paths: %v", got)
	}

	record, ok := snapshot.Files["a.txt"]
	if !ok {
		t.Fatal("a.txt missing from snapshot")
	}
	if len(record.Fingerprint) != 64 {
		t.Fatalf("expected 64 hex chars, got %q", record.Fingerprint)
	}
	if record.Size != int64(len("hello")) {
		t.Fatalf("unexpected size: %d", record.Size)
	}
	if record.ModifiedAt.IsZero() {
		t.Fatal("expected modification time to be recorded")
	}
	if snapshot.TotalBytes() != int64(len("hello")+len("world")) {
		t.Fatalf("unexpected total bytes: %d", snapshot.TotalBytes())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "nested/deep/b.txt", "world")

	first, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if !reflect.DeepEqual(first.Files, second.Files) {
		t.Fatalf("scans of unchanged tree differ:\nfirst:  %#v\nsecond: %#v", first.Files, second.Files)
	}
}

func TestRunTouchedFileKeepsFingerprint(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", "hello")

	before, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}

	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	after, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if before.Files["a.txt"].Fingerprint != after.Files["a.txt"].Fingerprint {
		t.Fatal("fingerprint changed for identical content")
	}
	if before.Files["a.txt"].ModifiedAt.Equal(after.Files["a.txt"].ModifiedAt) {
		t.Fatal("expected modification time to move after touch")
	}
}

func TestRunContentChangeChangesFingerprint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	before, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	writeFile(t, root, "a.txt", "hello!")
	after, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if before.Files["a.txt"].Fingerprint == after.Files["a.txt"].Fingerprint {
		t.Fatal("fingerprint unchanged after content edit")
	}
}

func TestRunAppliesExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "keep")
	writeFile(t, root, ".git/objects/blob", "internal")
	writeFile(t, root, "scratch.tmp", "scratch")

	snapshot, err := scan.Run(context.Background(), root, scan.WithExclude(".git", "*.tmp"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := snapshot.Paths(); !reflect.DeepEqual(got, []string{"keep.txt"}) {
		t.Fatalf("unexpected paths after exclusion: %v", got)
	}
}

func TestRunExcludeFunc(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "keep")
	writeFile(t, root, "skip/inner.txt", "skip")

	snapshot, err := scan.Run(context.Background(), root, scan.WithExcludeFunc(func(rel string, isDir bool) bool {
		return isDir && rel == "skip"
	}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, ok := snapshot.Files["skip/inner.txt"]; ok {
		t.Fatal("expected skip/inner.txt to be excluded")
	}
	if _, ok := snapshot.Files["keep.txt"]; !ok {
		t.Fatal("expected keep.txt to be present")
	}
}

func TestRunMaxFileSizeRecordsWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "ok")
	writeFile(t, root, "big.bin", "0123456789abcdef")

	snapshot, err := scan.Run(context.Background(), root, scan.WithMaxFileSize(8))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, ok := snapshot.Files["big.bin"]; ok {
		t.Fatal("expected big.bin to be skipped")
	}
	if _, ok := snapshot.Files["small.txt"]; !ok {
		t.Fatal("expected small.txt to be present")
	}
	if len(snapshot.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", snapshot.Warnings)
	}
	if snapshot.Warnings[0].Path != "big.bin" {
		t.Fatalf("unexpected warning path: %q", snapshot.Warnings[0].Path)
	}
}

func TestRunSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, root, "real.txt", "content")
	if err := os.Symlink(target, filepath.Join(root, "alias.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	snapshot, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, ok := snapshot.Files["alias.txt"]; ok {
		t.Fatal("expected symlink to be skipped")
	}
	if _, ok := snapshot.Files["real.txt"]; !ok {
		t.Fatal("expected real file to be present")
	}
}

func TestRunNormalizesUnicodePaths(t *testing.T) {
	root := t.TempDir()
	decomposed := "résumé.txt"
	writeFile(t, root, decomposed, "cv")

	snapshot, err := scan.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	composed := "résumé.txt"
	record, ok := snapshot.Files[composed]
	if !ok {
		t.Fatalf("expected NFC key %q, have %v", composed, snapshot.Paths())
	}
	if record.Path != composed {
		t.Fatalf("record path not normalized: %q", record.Path)
	}
}

func TestRunMissingRootFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")

	_, err := scan.Run(context.Background(), missing)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected filesystem marker, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := scan.Run(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
