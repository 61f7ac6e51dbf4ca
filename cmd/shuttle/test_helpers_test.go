package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"shuttle/internal/baseline"
	"shuttle/internal/config"
	"shuttle/internal/cycle"
	"shuttle/internal/daemon"
	"shuttle/internal/ipc"
	"shuttle/internal/logging"
	"shuttle/internal/push"
	"shuttle/internal/services/remote"
	"shuttle/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *baseline.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	configPath string
	logPath    string
	cancel     context.CancelFunc
}

// setupOfflineTestEnv writes a config file without starting anything, for
// commands that must work while no daemon is listening.
func setupOfflineTestEnv(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return cfg, writeTestConfig(t, cfg)
}

// setupCLITestEnv starts the full daemon stack in-process and wires the same
// stop reaction the production run loop has: a stop request over the socket
// halts the daemon and closes the socket.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	testsupport.RequireUnixSockets(t)

	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	logPath := cfg.LogFilePath()
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)

	client, err := remote.NewClient(cfg)
	if err != nil {
		t.Fatalf("remote.NewClient: %v", err)
	}
	engine := push.NewEngine(cfg, client, logging.NewNop())
	ctrl := cycle.New(cfg, store, engine, nil, "run-cli-test")

	d, err := daemon.New(cfg, store, logging.NewNop(), ctrl, logPath)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	if err := d.Start(ctx); err != nil {
		cancel()
		srv.Close()
		t.Fatalf("daemon.Start: %v", err)
	}

	go func() {
		select {
		case <-d.ShutdownRequested():
			d.Stop()
			srv.Close()
		case <-ctx.Done():
		}
	}()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		configPath: configPath,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
