package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateBackoff(); err != nil {
		return err
	}
	if err := c.validateHealth(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Root) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shuttle/config.toml"
		}
		return fmt.Errorf("paths.root is required. Set SHUTTLE_ROOT env var or edit %s (create with 'shuttle config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.IntervalSeconds <= 0 {
		return errors.New("scan.interval_seconds must be positive")
	}
	if c.Scan.MaxFileSizeMB < 0 {
		return errors.New("scan.max_file_size_mb must be >= 0")
	}
	if c.Scan.Watch && c.Scan.WatchDebounceMS <= 0 {
		return errors.New("scan.watch_debounce_ms must be positive when scan.watch is true")
	}
	return nil
}

func (c *Config) validateRemote() error {
	switch c.Remote.Kind {
	case RemoteKindHTTP:
		if c.Remote.Endpoint == "" {
			return errors.New("remote.endpoint must be set when remote.kind is \"http\"")
		}
		if c.Remote.Token == "" {
			return errors.New("remote.token is required when remote.kind is \"http\". Set SHUTTLE_TOKEN env var or add it to the config file")
		}
	case RemoteKindMirror:
		if strings.TrimSpace(c.Remote.MirrorDir) == "" {
			return errors.New("remote.mirror_dir must be set when remote.kind is \"mirror\"")
		}
	default:
		return fmt.Errorf("remote.kind must be %q or %q, got %q", RemoteKindHTTP, RemoteKindMirror, c.Remote.Kind)
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return errors.New("remote.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.GracePeriodSeconds <= 0 {
		return errors.New("daemon.grace_period_seconds must be positive")
	}
	switch c.Daemon.Supervisor {
	case SupervisorProcess, SupervisorExternal:
	default:
		return fmt.Errorf("daemon.supervisor must be %q or %q, got %q", SupervisorProcess, SupervisorExternal, c.Daemon.Supervisor)
	}
	return nil
}

func (c *Config) validateBackoff() error {
	if c.Backoff.BaseSeconds <= 0 {
		return errors.New("backoff.base_seconds must be positive")
	}
	if c.Backoff.MaxSeconds < c.Backoff.BaseSeconds {
		return errors.New("backoff.max_seconds must be >= backoff.base_seconds")
	}
	if c.Backoff.MaxConsecutiveFailures < 0 {
		return errors.New("backoff.max_consecutive_failures must be >= 0 (0 retries forever)")
	}
	return nil
}

func (c *Config) validateHealth() error {
	if c.Health.CheckIntervalSeconds <= 0 {
		return errors.New("health.check_interval_seconds must be positive")
	}
	if c.Health.StallCycles < 1 {
		return errors.New("health.stall_cycles must be >= 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
