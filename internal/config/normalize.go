package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeScan(); err != nil {
		return err
	}
	if err := c.normalizeRemote(); err != nil {
		return err
	}
	c.normalizeDaemon()
	c.normalizeBackoff()
	c.normalizeHealth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("SHUTTLE_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Root = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.Root) != "" {
		if c.Paths.Root, err = expandPath(c.Paths.Root); err != nil {
			return fmt.Errorf("paths.root: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() error {
	if value, ok := os.LookupEnv("SHUTTLE_INTERVAL"); ok && strings.TrimSpace(value) != "" {
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("scan.interval_seconds: SHUTTLE_INTERVAL %q is not an integer", value)
		}
		c.Scan.IntervalSeconds = seconds
	}
	if len(c.Scan.Excludes) == 0 {
		c.Scan.Excludes = Default().Scan.Excludes
	} else {
		excludes := make([]string, 0, len(c.Scan.Excludes))
		seen := make(map[string]struct{}, len(c.Scan.Excludes))
		for _, pattern := range c.Scan.Excludes {
			normalized := strings.TrimSpace(pattern)
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			excludes = append(excludes, normalized)
		}
		c.Scan.Excludes = excludes
	}
	if c.Scan.MaxFileSizeMB < 0 {
		c.Scan.MaxFileSizeMB = 0
	}
	if c.Scan.WatchDebounceMS <= 0 {
		c.Scan.WatchDebounceMS = defaultWatchDebounceMS
	}
	return nil
}

func (c *Config) normalizeRemote() error {
	c.Remote.Kind = strings.ToLower(strings.TrimSpace(c.Remote.Kind))
	if c.Remote.Kind == "" {
		c.Remote.Kind = defaultRemoteKind
	}
	c.Remote.Endpoint = strings.TrimSpace(c.Remote.Endpoint)
	c.Remote.Token = strings.TrimSpace(c.Remote.Token)
	if value, ok := os.LookupEnv("SHUTTLE_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Remote.Token = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Remote.MirrorDir) == "" {
		c.Remote.MirrorDir = defaultMirrorDir
	}
	var err error
	if c.Remote.MirrorDir, err = expandPath(c.Remote.MirrorDir); err != nil {
		return fmt.Errorf("remote.mirror_dir: %w", err)
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = defaultRemoteTimeout
	}
	if c.Remote.PushesPerSecond < 0 {
		c.Remote.PushesPerSecond = 0
	}
	return nil
}

func (c *Config) normalizeDaemon() {
	c.Daemon.Supervisor = strings.ToLower(strings.TrimSpace(c.Daemon.Supervisor))
	if c.Daemon.Supervisor == "" {
		c.Daemon.Supervisor = defaultSupervisor
	}
	if c.Daemon.GracePeriodSeconds <= 0 {
		c.Daemon.GracePeriodSeconds = defaultGracePeriod
	}
}

func (c *Config) normalizeBackoff() {
	if c.Backoff.BaseSeconds <= 0 {
		c.Backoff.BaseSeconds = defaultBackoffBase
	}
	if c.Backoff.MaxSeconds <= 0 {
		c.Backoff.MaxSeconds = defaultBackoffMax
	}
	if c.Backoff.MaxConsecutiveFailures < 0 {
		c.Backoff.MaxConsecutiveFailures = 0
	}
}

func (c *Config) normalizeHealth() {
	if c.Health.CheckIntervalSeconds <= 0 {
		c.Health.CheckIntervalSeconds = defaultHealthCheckInterval
	}
	if c.Health.StallCycles <= 0 {
		c.Health.StallCycles = defaultStallCycles
	}
	if c.Health.MinFreeDiskMB < 0 {
		c.Health.MinFreeDiskMB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "json":
		c.Logging.Format = "json"
	case "console":
	default:
		c.Logging.Format = "json"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}
