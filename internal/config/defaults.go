package config

const (
	defaultDataDir             = "~/.local/share/shuttle"
	defaultLogDir              = "~/.local/share/shuttle/logs"
	defaultScanInterval        = 30
	defaultMaxFileSizeMB       = 100
	defaultWatchDebounceMS     = 500
	defaultRemoteKind          = RemoteKindMirror
	defaultMirrorDir           = "~/.local/share/shuttle/mirror"
	defaultRemoteTimeout       = 30
	defaultGracePeriod         = 10
	defaultSupervisor          = SupervisorProcess
	defaultBackoffBase         = 1
	defaultBackoffMax          = 60
	defaultMaxFailures         = 10
	defaultHealthCheckInterval = 15
	defaultStallCycles         = 3
	defaultMinFreeDiskMB       = 256
	defaultLogFormat           = "json"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
	defaultLogMaxSizeMB        = 50
	defaultLogMaxBackups       = 14
)

// Remote collaborator kinds selectable via remote.kind.
const (
	RemoteKindHTTP   = "http"
	RemoteKindMirror = "mirror"
)

// Supervisor modes selectable via daemon.supervisor.
const (
	SupervisorProcess  = "process"
	SupervisorExternal = "external"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			IntervalSeconds: defaultScanInterval,
			Excludes:        []string{".git", ".hg", ".svn"},
			MaxFileSizeMB:   defaultMaxFileSizeMB,
			WatchDebounceMS: defaultWatchDebounceMS,
		},
		Remote: Remote{
			Kind:           defaultRemoteKind,
			MirrorDir:      defaultMirrorDir,
			TimeoutSeconds: defaultRemoteTimeout,
		},
		Daemon: Daemon{
			GracePeriodSeconds: defaultGracePeriod,
			Supervisor:         defaultSupervisor,
		},
		Backoff: Backoff{
			BaseSeconds:            defaultBackoffBase,
			MaxSeconds:             defaultBackoffMax,
			MaxConsecutiveFailures: defaultMaxFailures,
		},
		Health: Health{
			CheckIntervalSeconds: defaultHealthCheckInterval,
			StallCycles:          defaultStallCycles,
			MinFreeDiskMB:        defaultMinFreeDiskMB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
