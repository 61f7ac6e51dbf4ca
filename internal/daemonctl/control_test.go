package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shuttle/internal/baseline"
	"shuttle/internal/daemonctl"
	"shuttle/internal/scan"
	"shuttle/internal/testsupport"
)

func TestForceKillRefusesOwnPID(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "shuttle.pid")
	// An empty pid file falls back to the caller-provided pid.
	if err := os.WriteFile(pidPath, []byte("\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	if _, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestForceKillWithoutPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "absent.pid")
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error when no pid can be determined")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	_, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("stop without daemon: %v, want ErrDaemonNotRunning", err)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")

	start := time.Now()
	_, err := daemonctl.WaitForClient(socket, 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("wait took too long: %v", elapsed)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	files := map[string]scan.FileRecord{
		"a.txt": {Path: "a.txt", Fingerprint: "fp-a", Size: 5, ModifiedAt: time.Now().UTC()},
		"b.txt": {Path: "b.txt", Fingerprint: "fp-b", Size: 7, ModifiedAt: time.Now().UTC()},
	}
	if err := store.ReplaceAll(ctx, files); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}
	now := time.Now().UTC()
	record := baseline.SyncRecord{
		RunID:      "run-offline",
		CycleID:    3,
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
		Added:      2,
		Modified:   0,
		Removed:    1,
		Pushed:     2,
		Outcome:    baseline.OutcomeSuccess,
	}
	if _, err := store.RecordSync(ctx, record); err != nil {
		t.Fatalf("record sync: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	resp, err := daemonctl.BuildStatusSnapshot(ctx, cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if resp.Running {
		t.Fatal("expected offline snapshot to report not running")
	}
	if resp.Condition != "stopped" {
		t.Fatalf("condition = %q, want stopped", resp.Condition)
	}
	if resp.BaselineFiles != 2 {
		t.Fatalf("baseline files = %d, want 2", resp.BaselineFiles)
	}
	if resp.LastSyncSummary != "2 added, 0 modified, 1 removed" {
		t.Fatalf("last sync summary = %q", resp.LastSyncSummary)
	}
	if resp.LastSync == nil || resp.LastSync.Outcome != string(baseline.OutcomeSuccess) {
		t.Fatalf("unexpected last sync: %#v", resp.LastSync)
	}
	if resp.Root != cfg.Paths.Root {
		t.Fatalf("root = %q, want %q", resp.Root, cfg.Paths.Root)
	}
}
