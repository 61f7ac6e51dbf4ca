package hostsvc

import (
	"context"
	"errors"

	"shuttle/internal/config"
	"shuttle/internal/daemonctl"
	"shuttle/internal/daemonrun"
)

// externalHost defers process ownership to an outside supervisor such as
// systemd. Start never detaches, and stop only asks over the socket; killing
// the process is the supervisor's call.
type externalHost struct {
	cfg *config.Config
}

func (h *externalHost) Kind() string { return config.SupervisorExternal }

func (h *externalHost) Start(ctx context.Context) (StartResult, error) {
	err := daemonrun.Run(ctx, h.cfg, daemonrun.Options{Foreground: true})
	return StartResult{Foreground: true}, err
}

func (h *externalHost) Stop(_ context.Context) (StopResult, error) {
	res, err := daemonctl.StopViaSocket(h.cfg.SocketPath(), h.cfg.GracePeriod())
	if err != nil {
		if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
			return StopResult{}, nil
		}
		return StopResult{}, err
	}
	return StopResult{WasRunning: true, PID: res.PID}, nil
}

func (h *externalHost) Restart(ctx context.Context) (RestartResult, error) {
	stop, err := h.Stop(ctx)
	if err != nil {
		return RestartResult{}, err
	}
	return RestartResult{
		WasRunning: stop.WasRunning,
		PID:        stop.PID,
		Message:    "stop requested; the external supervisor owns the relaunch",
	}, nil
}
