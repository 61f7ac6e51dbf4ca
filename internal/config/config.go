package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	Root    string `toml:"root"`
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Scan contains configuration for the fingerprint scanner and cycle pacing.
type Scan struct {
	IntervalSeconds int      `toml:"interval_seconds"`
	Excludes        []string `toml:"excludes"`
	MaxFileSizeMB   int      `toml:"max_file_size_mb"`
	Watch           bool     `toml:"watch"`
	WatchDebounceMS int      `toml:"watch_debounce_ms"`
}

// Remote contains configuration for the sync collaborator.
type Remote struct {
	Kind            string  `toml:"kind"`
	Endpoint        string  `toml:"endpoint"`
	Token           string  `toml:"token"`
	MirrorDir       string  `toml:"mirror_dir"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	PushesPerSecond float64 `toml:"pushes_per_second"`
}

// Daemon contains process lifecycle configuration.
type Daemon struct {
	GracePeriodSeconds int    `toml:"grace_period_seconds"`
	Supervisor         string `toml:"supervisor"`
}

// Backoff contains retry pacing for transient sync failures.
type Backoff struct {
	BaseSeconds            int `toml:"base_seconds"`
	MaxSeconds             int `toml:"max_seconds"`
	MaxConsecutiveFailures int `toml:"max_consecutive_failures"`
}

// Health contains configuration for the failsafe monitor.
type Health struct {
	CheckIntervalSeconds int `toml:"check_interval_seconds"`
	StallCycles          int `toml:"stall_cycles"`
	MinFreeDiskMB        int `toml:"min_free_disk_mb"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for Shuttle.
//
// Configuration sections by subsystem:
//   - Paths: monitored root plus state and log directories
//   - Scan: fingerprint scan interval, exclusions, watch trigger
//   - Remote: sync collaborator selection and credentials
//   - Daemon: shutdown grace period and supervisor mode
//   - Backoff: transient failure retry pacing and ceiling
//   - Health: failsafe monitor cadence and thresholds
//   - Logging: log format, level, rotation, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scan    Scan    `toml:"scan"`
	Remote  Remote  `toml:"remote"`
	Daemon  Daemon  `toml:"daemon"`
	Backoff Backoff `toml:"backoff"`
	Health  Health  `toml:"health"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shuttle/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env, ok := os.LookupEnv("SHUTTLE_CONFIG"); ok && strings.TrimSpace(env) != "" {
			path = strings.TrimSpace(env)
		}
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/shuttle/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shuttle.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// mirror destination is created on a best-effort basis so the daemon can
// start when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Remote.Kind == RemoteKindMirror && strings.TrimSpace(c.Remote.MirrorDir) != "" {
		_ = os.MkdirAll(c.Remote.MirrorDir, 0o755)
	}
	return nil
}

// DatabasePath returns the baseline store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "shuttle.db")
}

// PIDFilePath returns the plain text pid file location.
func (c *Config) PIDFilePath() string {
	return filepath.Join(c.Paths.DataDir, "shuttle.pid")
}

// LockFilePath returns the single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "shuttle.lock")
}

// SocketPath returns the control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "shuttle.sock")
}

// LogFilePath returns the active daemon log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "shuttle.log")
}

// ScanInterval returns the monitoring cycle interval.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalSeconds) * time.Second
}

// GracePeriod returns the bounded shutdown grace period.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Daemon.GracePeriodSeconds) * time.Second
}

// HealthCheckInterval returns the failsafe monitor cadence.
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.Health.CheckIntervalSeconds) * time.Second
}

// WatchDebounce returns the quiet period applied to filesystem events before
// they trigger an early scan.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Scan.WatchDebounceMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
