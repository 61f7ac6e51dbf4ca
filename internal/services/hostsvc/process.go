package hostsvc

import (
	"context"
	"errors"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/daemonctl"
	"shuttle/internal/services"
)

// startWaitTimeout bounds how long we wait for a freshly launched daemon to
// answer on the control socket.
const startWaitTimeout = 15 * time.Second

// processHost launches and terminates a detached daemon process itself,
// tracking it through the pid file and control socket.
type processHost struct {
	cfg        *config.Config
	configPath string
	execPath   string
}

func (h *processHost) Kind() string { return config.SupervisorProcess }

func (h *processHost) launchOptions() daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{ConfigPath: h.configPath}
}

func (h *processHost) Start(_ context.Context) (StartResult, error) {
	res, err := daemonctl.EnsureStarted(h.cfg.SocketPath(), h.execPath, h.launchOptions(), startWaitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	_, pid, _ := daemonctl.ProcessInfo(h.cfg.SocketPath())
	if res.State == daemonctl.StartStateAlreadyRunning {
		return StartResult{PID: pid}, services.Wrap(services.ErrAlreadyRunning, "hostsvc", "start",
			"daemon is already running", nil)
	}
	return StartResult{PID: pid, Message: res.Message}, nil
}

func (h *processHost) Stop(_ context.Context) (StopResult, error) {
	res, err := daemonctl.StopAndTerminate(h.cfg.SocketPath(), h.cfg, h.cfg.GracePeriod())
	if err != nil {
		if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
			return StopResult{}, nil
		}
		return StopResult{}, err
	}
	return StopResult{WasRunning: true, ForcedKill: res.ForcedKill, PID: res.PID}, nil
}

func (h *processHost) Restart(_ context.Context) (RestartResult, error) {
	res, err := daemonctl.Restart(h.cfg.SocketPath(), h.cfg, h.execPath, h.launchOptions(),
		h.cfg.GracePeriod(), startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}
	_, pid, _ := daemonctl.ProcessInfo(h.cfg.SocketPath())
	return RestartResult{WasRunning: res.WasRunning, PID: pid, Message: res.Start.Message}, nil
}
