package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"shuttle/internal/baseline"
	"shuttle/internal/config"
	"shuttle/internal/cycle"
	"shuttle/internal/daemon"
	"shuttle/internal/ipc"
	"shuttle/internal/logging"
	"shuttle/internal/push"
	"shuttle/internal/services"
	"shuttle/internal/services/remote"
	"shuttle/internal/watch"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
	// Foreground mirrors log output to stdout in addition to the log file.
	// Used when a supervisor owns the process or when debugging interactively.
	Foreground bool
	// Development switches the logger to the human-readable console format.
	Development bool
}

// Run boots the full daemon runtime and blocks until a shutdown signal, a
// stop request over the control socket, or a fatal controller error. The
// returned error is the fatal error, if any, so callers can map it to an
// exit code.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	sink, err := logging.NewFileSink(logging.SinkOptions{
		Path:       cfg.LogFilePath(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		return fmt.Errorf("open log sink: %w", err)
	}
	defer sink.Close()

	var out io.Writer = sink
	if opts.Foreground {
		out = io.MultiWriter(os.Stdout, sink)
	}
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	format := cfg.Logging.Format
	if opts.Development {
		format = "console"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      format,
		Output:      out,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "shuttle*.log*", Exclude: []string{sink.Path()}},
	)

	runID := uuid.NewString()
	logStartupSnapshot(logger, cfg, runID)

	store, err := baseline.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open baseline store", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data directory permissions and disk health"),
			logging.String(logging.FieldImpact, "daemon did not start"))
		return err
	}

	client, err := remote.NewClient(cfg)
	if err != nil {
		store.Close()
		logging.ErrorWithContext(logger, "configure remote", "daemon_start_failed", logging.Error(err))
		return err
	}
	engine := push.NewEngine(cfg, client, logger)
	ctrl := cycle.New(cfg, store, engine, logger, runID)

	d, err := daemon.New(cfg, store, logger, ctrl, sink.Path())
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}

	// The lock comes first: a second instance must fail here, before it can
	// touch the live daemon's socket.
	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, services.ErrAlreadyRunning) {
			logging.WarnWithContext(logger, "another instance holds the lock", "daemon_already_running",
				logging.Error(err))
		} else {
			logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the data directory and configuration"),
				logging.String(logging.FieldImpact, "daemon did not start"))
		}
		d.Close()
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		d.Close()
		return fmt.Errorf("start control socket: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if cfg.Scan.Watch {
		watcher := watch.New(cfg, func() { _ = d.TriggerSync() }, logger)
		if err := watcher.Start(signalCtx); err != nil {
			logging.WarnWithContext(logger, "filesystem watch unavailable", "watch_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inotify limits may be exhausted"),
				logging.String(logging.FieldImpact, "changes are detected on the polling interval only"))
		} else {
			defer watcher.Close()
		}
	}

	var fatalErr error
	select {
	case <-signalCtx.Done():
		logger.Info("shutdown signal received",
			logging.String(logging.FieldEventType, "daemon_shutdown"))
	case <-d.ShutdownRequested():
		logger.Info("shutdown requested via control socket",
			logging.String(logging.FieldEventType, "daemon_shutdown"))
	case <-d.ControllerDone():
		fatalErr = d.FatalError()
		if fatalErr != nil {
			logging.ErrorWithContext(logger, "controller stopped with fatal error", "daemon_fatal",
				logging.Error(fatalErr),
				logging.String(logging.FieldImpact, "daemon is shutting down"))
		} else {
			logging.WarnWithContext(logger, "controller stopped unexpectedly", "daemon_fatal")
		}
	}

	stopDaemon(d, cfg.GracePeriod(), logger)
	return fatalErr
}

// stopDaemon shuts the daemon down but refuses to wait longer than the grace
// period. A cycle stuck on dead I/O should not be able to hold the process
// hostage; the next start recovers the stale lock.
func stopDaemon(d *daemon.Daemon, grace time.Duration, logger *slog.Logger) {
	stopped := make(chan struct{})
	go func() {
		d.Close()
		close(stopped)
	}()
	if grace <= 0 {
		<-stopped
		return
	}
	select {
	case <-stopped:
	case <-time.After(grace):
		logging.WarnWithContext(logger, "shutdown grace period exceeded, exiting", "shutdown_grace_exceeded",
			logging.Duration("grace", grace),
			logging.String(logging.FieldImpact, "the sync cycle was abandoned mid-flight"))
	}
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config, runID string) {
	logger.Info("shuttle daemon starting",
		logging.String(logging.FieldEventType, "daemon_boot"),
		logging.String("run_id", runID),
		logging.Int("pid", os.Getpid()),
		logging.String("root", cfg.Paths.Root),
		logging.String("remote", cfg.Remote.Kind),
		logging.Duration("interval", cfg.ScanInterval()),
		logging.Bool("watch", cfg.Scan.Watch),
		logging.String("socket", cfg.SocketPath()),
		logging.String("log_file", cfg.LogFilePath()),
	)
}
