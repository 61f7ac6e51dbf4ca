package hostsvc

import (
	"context"
	"errors"
	"fmt"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

// Host abstracts who owns the daemon process lifecycle. The daemon behaves
// identically under every variant; only launch and teardown differ.
type Host interface {
	// Kind returns the configured supervisor mode.
	Kind() string
	// Start brings the daemon up. The process variant launches a detached
	// daemon and returns once it answers on the control socket; the external
	// variant runs the daemon inline and blocks until it exits.
	Start(ctx context.Context) (StartResult, error)
	// Stop brings the daemon down. Stopping an already-stopped daemon is not
	// an error.
	Stop(ctx context.Context) (StopResult, error)
	// Restart cycles the daemon where the variant permits it.
	Restart(ctx context.Context) (RestartResult, error)
}

// StartResult describes how start completed.
type StartResult struct {
	// PID of the running daemon, when known.
	PID int
	// Foreground is set when the daemon ran inline and has already exited.
	Foreground bool
	// Message carries a variant-specific outcome line for the operator.
	Message string
}

// StopResult describes how the daemon went down.
type StopResult struct {
	WasRunning bool
	ForcedKill bool
	PID        int
}

// RestartResult describes the restart outcome.
type RestartResult struct {
	WasRunning bool
	PID        int
	// Message carries a variant-specific caveat, if any.
	Message string
}

// New selects the host variant named by daemon.supervisor.
func New(cfg *config.Config, configPath, executablePath string) (Host, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	switch cfg.Daemon.Supervisor {
	case config.SupervisorProcess:
		return &processHost{cfg: cfg, configPath: configPath, execPath: executablePath}, nil
	case config.SupervisorExternal:
		return &externalHost{cfg: cfg}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "hostsvc", "new",
			fmt.Sprintf("unknown supervisor mode %q", cfg.Daemon.Supervisor), nil)
	}
}
