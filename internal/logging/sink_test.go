package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSinkCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "shuttle.log")

	sink, err := NewFileSink(SinkOptions{Path: path, MaxSizeMB: 10})
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	if _, err := sink.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello") {
		t.Fatalf("expected log content, got %q", content)
	}
}

func TestFileSinkRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shuttle.log")

	sink, err := NewFileSink(SinkOptions{Path: path, MaxSizeMB: 10})
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	current := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	sink.now = func() time.Time { return current }

	if _, err := sink.Write([]byte("day one\n")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	current = time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)
	if _, err := sink.Write([]byte("day two\n")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotated backup plus active file, got %d entries", len(entries))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read active file: %v", err)
	}
	if !strings.Contains(string(content), "day two") {
		t.Fatalf("expected new day content in active file, got %q", content)
	}
	if strings.Contains(string(content), "day one") {
		t.Fatalf("expected old day content rotated away, got %q", content)
	}
}

func TestCleanupOldLogsPrunesByAge(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "shuttle-old.log")
	keep := filepath.Join(dir, "shuttle.log")
	for _, path := range []string{old, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, keep} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	CleanupOldLogs(NewNop(), 7, RetentionTarget{Dir: dir, Pattern: "shuttle*.log*", Exclude: []string{keep}})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log pruned, stat err=%v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected excluded log kept: %v", err)
	}
}
