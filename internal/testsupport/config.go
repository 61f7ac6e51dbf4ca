package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shuttle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The monitored root exists and the remote is the mirror variant, so tests
// can run full cycles without a network. Options adjust from there.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Root = filepath.Join(base, "tree")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Remote.Kind = config.RemoteKindMirror
	cfgVal.Remote.MirrorDir = filepath.Join(base, "mirror")
	cfgVal.Scan.IntervalSeconds = 1
	cfgVal.Daemon.GracePeriodSeconds = 2
	cfgVal.Backoff.BaseSeconds = 1
	cfgVal.Backoff.MaxSeconds = 4

	if err := os.MkdirAll(cfgVal.Paths.Root, 0o755); err != nil {
		t.Fatalf("mkdir monitored root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemoteHTTP switches the test config to the HTTP remote variant.
func WithRemoteHTTP(endpoint, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.Kind = config.RemoteKindHTTP
		b.cfg.Remote.Endpoint = endpoint
		b.cfg.Remote.Token = token
	}
}

// WithScanInterval overrides the polling interval in seconds.
func WithScanInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.IntervalSeconds = seconds
	}
}

// WithExcludes replaces the exclusion patterns on the test config.
func WithExcludes(patterns ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Excludes = patterns
	}
}

// WithWatchDebounce enables filesystem watching with the given quiet period.
func WithWatchDebounce(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Watch = true
		b.cfg.Scan.WatchDebounceMS = ms
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
