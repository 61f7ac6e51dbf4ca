package daemon_test

import (
	"context"
	"testing"
	"time"

	"shuttle/internal/baseline"
	"shuttle/internal/config"
	"shuttle/internal/cycle"
	"shuttle/internal/daemon"
	"shuttle/internal/logging"
	"shuttle/internal/push"
	"shuttle/internal/services/remote"
	"shuttle/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config, store *baseline.Store) *daemon.Daemon {
	t.Helper()

	client, err := remote.NewClient(cfg)
	if err != nil {
		t.Fatalf("build remote client: %v", err)
	}
	engine := push.NewEngine(cfg, client, nil)
	ctrl := cycle.New(cfg, store, engine, nil, "run-daemon-test")
	d, err := daemon.New(cfg, store, logging.NewNop(), ctrl, cfg.LogFilePath())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanInterval(60))
	testsupport.Seed(t, cfg.Paths.Root, "a.txt", "hello")
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)
	t.Cleanup(func() { d.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID == 0 {
		t.Fatal("expected a nonzero daemon pid")
	}
	if status.RemoteKind != config.RemoteKindMirror {
		t.Fatalf("status remote kind = %q, want %q", status.RemoteKind, config.RemoteKindMirror)
	}

	// Second start must fail without disturbing the running instance.
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonHoldsInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanInterval(60))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)
	t.Cleanup(func() { d.Stop() })

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// While the daemon runs, a second acquisition attempt loses.
	if _, err := daemon.Acquire(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected lock acquisition to fail while daemon runs")
	}

	d.Stop()

	lock, err := daemon.Acquire(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("acquire after stop: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestDaemonTriggerSyncRequiresRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanInterval(60))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	if err := d.TriggerSync(); err == nil {
		t.Fatal("expected trigger on a stopped daemon to fail")
	}
}

func TestDaemonTriggerSyncRunsCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanInterval(60))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)
	t.Cleanup(func() { d.Stop() })

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if d.Status(ctx).Health.Phase == cycle.PhaseWaiting {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	testsupport.Seed(t, cfg.Paths.Root, "later.txt", "content")
	if err := d.TriggerSync(); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	for time.Now().Before(deadline) {
		if d.Status(ctx).Health.BaselineFiles == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	history, err := d.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("expected at least one journal entry after a triggered sync")
	}
	if history[0].Outcome != baseline.OutcomeSuccess {
		t.Fatalf("latest outcome = %q, want %q", history[0].Outcome, baseline.OutcomeSuccess)
	}
}

func TestRequestShutdownSignalsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScanInterval(60))
	store := testsupport.MustOpenStore(t, cfg)
	d := newTestDaemon(t, cfg, store)

	select {
	case <-d.ShutdownRequested():
		t.Fatal("shutdown channel closed before any request")
	default:
	}

	d.RequestShutdown()
	d.RequestShutdown()

	select {
	case <-d.ShutdownRequested():
	case <-time.After(time.Second):
		t.Fatal("shutdown channel not closed after request")
	}
}
