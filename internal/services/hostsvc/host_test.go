package hostsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/daemonctl"
	"shuttle/internal/services"
	"shuttle/internal/services/hostsvc"
	"shuttle/internal/testsupport"
)

func TestNewSelectsVariant(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	host, err := hostsvc.New(cfg, "", "/usr/bin/shuttle")
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	if host.Kind() != config.SupervisorProcess {
		t.Fatalf("default kind = %q, want %q", host.Kind(), config.SupervisorProcess)
	}

	cfg.Daemon.Supervisor = config.SupervisorExternal
	host, err = hostsvc.New(cfg, "", "")
	if err != nil {
		t.Fatalf("new external host: %v", err)
	}
	if host.Kind() != config.SupervisorExternal {
		t.Fatalf("kind = %q, want %q", host.Kind(), config.SupervisorExternal)
	}

	cfg.Daemon.Supervisor = "cron"
	if _, err := hostsvc.New(cfg, "", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("unknown supervisor error = %v, want ErrConfiguration", err)
	}
}

func TestStopWithoutDaemonIsNotAnError(t *testing.T) {
	for _, supervisor := range []string{config.SupervisorProcess, config.SupervisorExternal} {
		cfg := testsupport.NewConfig(t)
		cfg.Daemon.Supervisor = supervisor

		host, err := hostsvc.New(cfg, "", "/usr/bin/shuttle")
		if err != nil {
			t.Fatalf("new %s host: %v", supervisor, err)
		}
		res, err := host.Stop(context.Background())
		if err != nil {
			t.Fatalf("%s stop without daemon: %v", supervisor, err)
		}
		if res.WasRunning {
			t.Fatalf("%s stop reported a running daemon", supervisor)
		}
	}
}

func TestExternalHostRunsForeground(t *testing.T) {
	testsupport.RequireUnixSockets(t)
	cfg := testsupport.NewConfig(t)
	cfg.Daemon.Supervisor = config.SupervisorExternal

	host, err := hostsvc.New(cfg, "", "")
	if err != nil {
		t.Fatalf("new host: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		res hostsvc.StartResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := host.Start(ctx)
		done <- outcome{res, err}
	}()

	client, err := daemonctl.WaitForClient(cfg.SocketPath(), 10*time.Second)
	if err != nil {
		t.Fatalf("daemon never answered: %v", err)
	}
	client.Close()

	stop, err := host.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !stop.WasRunning {
		t.Fatalf("stop did not find the daemon running")
	}

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("foreground run returned error: %v", out.err)
		}
		if !out.res.Foreground {
			t.Fatalf("start result not marked foreground")
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("foreground daemon did not exit after stop")
	}
}
