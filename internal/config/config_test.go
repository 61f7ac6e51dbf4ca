package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shuttle/internal/config"
)

func TestLoadDefaultsUsesEnvRootAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SHUTTLE_ROOT", "~/workspace")
	t.Setenv("SHUTTLE_TOKEN", "env-token")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.Root != filepath.Join(tempHome, "workspace") {
		t.Fatalf("unexpected root: %q", cfg.Paths.Root)
	}
	wantData := filepath.Join(tempHome, ".local", "share", "shuttle")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Remote.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Remote.Token)
	}
	if cfg.Scan.IntervalSeconds != config.Default().Scan.IntervalSeconds {
		t.Fatalf("unexpected scan interval: %d", cfg.Scan.IntervalSeconds)
	}
	if cfg.Backoff.MaxSeconds != 60 {
		t.Fatalf("unexpected backoff cap: %d", cfg.Backoff.MaxSeconds)
	}
	if cfg.Daemon.Supervisor != config.SupervisorProcess {
		t.Fatalf("unexpected supervisor: %q", cfg.Daemon.Supervisor)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "shuttle.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shuttle.toml")

	type payload struct {
		Paths struct {
			Root string `toml:"root"`
		} `toml:"paths"`
		Scan struct {
			IntervalSeconds int `toml:"interval_seconds"`
		} `toml:"scan"`
		Remote struct {
			Kind      string `toml:"kind"`
			MirrorDir string `toml:"mirror_dir"`
		} `toml:"remote"`
		Backoff struct {
			BaseSeconds int `toml:"base_seconds"`
			MaxSeconds  int `toml:"max_seconds"`
		} `toml:"backoff"`
	}
	custom := payload{}
	custom.Paths.Root = filepath.Join(tempDir, "tree")
	custom.Scan.IntervalSeconds = 5
	custom.Remote.Kind = "mirror"
	custom.Remote.MirrorDir = filepath.Join(tempDir, "mirror")
	custom.Backoff.BaseSeconds = 2
	custom.Backoff.MaxSeconds = 40
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Scan.IntervalSeconds != 5 {
		t.Fatalf("expected scan interval 5, got %d", cfg.Scan.IntervalSeconds)
	}
	if cfg.Remote.Kind != config.RemoteKindMirror {
		t.Fatalf("expected mirror remote, got %q", cfg.Remote.Kind)
	}
	if cfg.Backoff.BaseSeconds != 2 || cfg.Backoff.MaxSeconds != 40 {
		t.Fatalf("unexpected backoff: %+v", cfg.Backoff)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shuttle.toml")

	type payload struct {
		Paths struct {
			Root string `toml:"root"`
		} `toml:"paths"`
		Scan struct {
			IntervalSeconds int `toml:"interval_seconds"`
		} `toml:"scan"`
		Remote struct {
			Kind     string `toml:"kind"`
			Endpoint string `toml:"endpoint"`
			Token    string `toml:"token"`
		} `toml:"remote"`
	}
	custom := payload{}
	custom.Paths.Root = filepath.Join(tempDir, "file-root")
	custom.Scan.IntervalSeconds = 90
	custom.Remote.Kind = "http"
	custom.Remote.Endpoint = "https://example.com/sync"
	custom.Remote.Token = "file-token"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	envRoot := filepath.Join(tempDir, "env-root")
	t.Setenv("SHUTTLE_ROOT", envRoot)
	t.Setenv("SHUTTLE_INTERVAL", "7")
	t.Setenv("SHUTTLE_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Paths.Root != envRoot {
		t.Errorf("expected root from env, got %q", cfg.Paths.Root)
	}
	if cfg.Scan.IntervalSeconds != 7 {
		t.Errorf("expected interval from env, got %d", cfg.Scan.IntervalSeconds)
	}
	if cfg.Remote.Token != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.Remote.Token)
	}
}

func TestInvalidIntervalEnvRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHUTTLE_ROOT", "~/workspace")
	t.Setenv("SHUTTLE_TOKEN", "token")
	t.Setenv("SHUTTLE_INTERVAL", "soon")

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-integer SHUTTLE_INTERVAL")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_sync_token_here") {
		t.Fatalf("sample config missing placeholder token: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Scan.IntervalSeconds != 30 {
		t.Fatalf("expected sample interval 30, got %d", cfg.Scan.IntervalSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.Root = "/tmp/tree"
		cfg.Remote.Kind = config.RemoteKindMirror
		cfg.Remote.MirrorDir = "/tmp/mirror"
		return cfg
	}

	cfg := base()
	cfg.Scan.IntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive interval")
	}

	cfg = base()
	cfg.Backoff.MaxSeconds = 0
	cfg.Backoff.BaseSeconds = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when backoff cap below base")
	}

	cfg = base()
	cfg.Remote.Kind = "ftp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown remote kind")
	}

	cfg = base()
	cfg.Remote.Kind = config.RemoteKindHTTP
	cfg.Remote.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for http remote without endpoint")
	}

	cfg = base()
	cfg.Daemon.Supervisor = "systemd"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown supervisor")
	}

	cfg = base()
	cfg.Paths.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when root missing")
	}
}
