package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"shuttle/internal/baseline"
	"shuttle/internal/config"
	"shuttle/internal/cycle"
	"shuttle/internal/logging"
)

// Daemon ties the controller, the baseline store, and the instance lock into
// one lifecycle. It is built once at startup and passed to the IPC server;
// nothing in the daemon is a global.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *baseline.Store
	ctrl    *cycle.Controller
	logPath string

	lock *ProcessLock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Status is the daemon-level view served to status queries.
type Status struct {
	Running    bool
	PID        int
	Condition  string
	Health     cycle.Health
	Root       string
	RemoteKind string
	Interval   time.Duration
	DBPath     string
	LockPath   string
	LogPath    string
	LastSync   *baseline.SyncRecord
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *baseline.Store, logger *slog.Logger, ctrl *cycle.Controller, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || ctrl == nil {
		return nil, errors.New("daemon requires config, store, logger, and controller")
	}
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		ctrl:       ctrl,
		logPath:    logPath,
		shutdownCh: make(chan struct{}),
	}, nil
}

// Start acquires the instance lock, launches the controller, and begins the
// health monitor. services.ErrAlreadyRunning surfaces unchanged so callers
// can map it to the right exit code.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already started")
	}

	lock, err := Acquire(d.cfg, d.logger)
	if err != nil {
		return err
	}
	d.lock = lock

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.ctrl.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = lock.Release()
		d.lock = nil
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.monitorLoop(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("shuttle daemon started",
		logging.Int("pid", lock.PID),
		logging.String("lock", lock.LockPath),
		logging.String("root", d.cfg.Paths.Root))
	return nil
}

// Stop halts the controller and the health monitor, then releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctrl.Stop()
	d.wg.Wait()

	if d.lock != nil {
		if err := d.lock.Release(); err != nil {
			d.logger.Warn("failed to release instance lock", logging.Error(err))
		}
		d.lock = nil
	}
	d.running.Store(false)
	d.logger.Info("shuttle daemon stopped")
}

// Close stops the daemon and closes the baseline store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the hosting process to exit. Used by the IPC stop
// handler so a remote stop terminates the whole process, not just the loop.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

// ShutdownRequested is closed after the first RequestShutdown call.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// ControllerDone is closed when the monitoring loop exits, including fatal
// stops the host process must react to.
func (d *Daemon) ControllerDone() <-chan struct{} {
	return d.ctrl.Done()
}

// FatalError reports the error that stopped the controller, if any.
func (d *Daemon) FatalError() error {
	return d.ctrl.FatalError()
}

// TriggerSync wakes the controller for an immediate cycle.
func (d *Daemon) TriggerSync() error {
	if !d.running.Load() {
		return errors.New("daemon not running")
	}
	d.ctrl.TriggerSync()
	return nil
}

// History returns recent sync journal entries, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]baseline.SyncRecord, error) {
	return d.store.History(ctx, limit)
}

// DatabaseHealth returns detailed baseline store diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (baseline.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status assembles the current daemon state for IPC and CLI rendering.
func (d *Daemon) Status(ctx context.Context) Status {
	health := d.ctrl.Health()
	status := Status{
		Running:    d.running.Load(),
		PID:        d.lockPID(),
		Condition:  health.Condition(time.Now(), d.cfg.ScanInterval(), d.cfg.Health.StallCycles),
		Health:     health,
		Root:       d.cfg.Paths.Root,
		RemoteKind: d.cfg.Remote.Kind,
		Interval:   d.cfg.ScanInterval(),
		DBPath:     d.cfg.DatabasePath(),
		LockPath:   d.cfg.LockFilePath(),
		LogPath:    d.logPath,
	}
	if last, err := d.store.LastSync(ctx); err == nil {
		status.LastSync = last
	}
	return status
}

func (d *Daemon) lockPID() int {
	if d.lock != nil {
		return d.lock.PID
	}
	return 0
}
