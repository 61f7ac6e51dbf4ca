package daemon

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"shuttle/internal/logging"
)

// monitorLoop is the failsafe watchdog: it runs on its own cadence,
// independent of the controller's pacing, and only ever reads shared state.
// A broken check degrades to a log line, never to a crashed daemon.
func (d *Daemon) monitorLoop(ctx context.Context) {
	interval := d.cfg.HealthCheckInterval()
	if interval <= 0 {
		return
	}
	logger := logging.NewComponentLogger(d.logger, "health")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkHealth(ctx, logger)
		}
	}
}

func (d *Daemon) checkHealth(ctx context.Context, logger *slog.Logger) {
	now := time.Now()
	health := d.ctrl.Health()

	if health.Stalled(now, d.cfg.ScanInterval(), d.cfg.Health.StallCycles) {
		reference := health.LastCycleCompletedAt
		if reference.IsZero() {
			reference = health.StartedAt
		}
		logging.WarnWithContext(logger, "monitoring loop stalled", "health_stall",
			logging.Alert("stall"),
			logging.String("phase", string(health.Phase)),
			logging.Duration("since_last_cycle", now.Sub(reference)),
			logging.String(logging.FieldErrorHint, "the current cycle may be stuck on slow I/O or an unresponsive remote"),
			logging.String(logging.FieldImpact, "changes are not being synchronized"))
	}

	if d.cfg.Health.MinFreeDiskMB > 0 {
		free, err := freeDiskMB(d.cfg.Paths.DataDir)
		if err == nil && free < int64(d.cfg.Health.MinFreeDiskMB) {
			logging.WarnWithContext(logger, "free disk space below threshold", "health_disk_low",
				logging.Alert("disk"),
				logging.Int64("free_mb", free),
				logging.Int("threshold_mb", d.cfg.Health.MinFreeDiskMB),
				logging.String(logging.FieldErrorHint, "free space on the data directory volume"),
				logging.String(logging.FieldImpact, "baseline writes may start failing"))
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := d.store.Count(probeCtx); err != nil && ctx.Err() == nil {
		logging.WarnWithContext(logger, "baseline store probe failed", "health_store_probe",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the database file and disk health"),
			logging.String(logging.FieldImpact, "sync results may not be persisted"))
	}
}

func freeDiskMB(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * st.Bsize / (1024 * 1024), nil
}
