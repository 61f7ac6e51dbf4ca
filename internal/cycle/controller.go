package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shuttle/internal/baseline"
	"shuttle/internal/change"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/push"
	"shuttle/internal/scan"
	"shuttle/internal/services"
)

// Controller drives the monitoring loop: scan, detect, sync, wait. Exactly
// one controller runs per daemon process; the process lock guarantees that
// before the controller ever starts.
type Controller struct {
	cfg    *config.Config
	store  *baseline.Store
	engine *push.Engine
	logger *slog.Logger
	runID  string

	interval    time.Duration
	backoffBase time.Duration
	backoffMax  time.Duration
	maxFailures int

	wake chan struct{}
	done chan struct{}

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	health   Health
	fatalErr error
}

// New constructs a controller. The runID tags every log line and journal
// row emitted by this process.
func New(cfg *config.Config, store *baseline.Store, engine *push.Engine, logger *slog.Logger, runID string) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		cfg:         cfg,
		store:       store,
		engine:      engine,
		logger:      logging.NewComponentLogger(logger, "cycle"),
		runID:       runID,
		interval:    cfg.ScanInterval(),
		backoffBase: time.Duration(cfg.Backoff.BaseSeconds) * time.Second,
		backoffMax:  time.Duration(cfg.Backoff.MaxSeconds) * time.Second,
		maxFailures: cfg.Backoff.MaxConsecutiveFailures,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start launches the controller loop in its own goroutine.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("cycle controller already running")
	}
	runCtx, cancel := context.WithCancel(services.WithRunID(ctx, c.runID))
	c.cancel = cancel
	c.running = true
	c.health = Health{
		Running:   true,
		Phase:     PhaseStarting,
		RunID:     c.runID,
		StartedAt: time.Now().UTC(),
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Stop cancels the loop and waits for it to finish. Safe to call more than
// once, and after the loop has already stopped on its own.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Done is closed when the controller loop exits, whether by Stop, context
// cancellation, or a fatal error.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// TriggerSync wakes the controller out of its wait so the next cycle starts
// immediately. Safe from any goroutine; a trigger while a cycle is already
// running coalesces into one wake.
func (c *Controller) TriggerSync() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.running = false
		c.health.Running = false
		c.health.Phase = PhaseStopped
		c.mu.Unlock()
	}()

	c.logger.Info("sync daemon run starting",
		logging.String("run_id", c.runID),
		logging.String("root", c.cfg.Paths.Root),
		logging.Duration("interval", c.interval))

	c.setPhase(PhaseAuthenticating)
	if err := c.engine.Authenticate(ctx); err != nil {
		if ctx.Err() == nil {
			c.recordFatal(err)
			logging.ErrorWithContext(logging.WithContext(ctx, c.logger), "remote authentication failed", "auth_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify SHUTTLE_TOKEN and remote endpoint"),
				logging.String(logging.FieldImpact, "daemon stopping"))
		}
		c.setPhase(PhaseStopping)
		return
	}

	if err := c.establishBaseline(ctx); err != nil {
		if ctx.Err() == nil {
			c.recordFatal(err)
			logging.ErrorWithContext(logging.WithContext(ctx, c.logger), "baseline establishment failed", "baseline_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the monitored root and data directory"),
				logging.String(logging.FieldImpact, "daemon stopping"))
		}
		c.setPhase(PhaseStopping)
		return
	}

	c.monitor(ctx)

	c.setPhase(PhaseStopping)
	c.logger.Info("sync daemon run stopped", logging.String("run_id", c.runID))
}

// establishBaseline adopts a fresh scan as the baseline when none is
// persisted. No sync call happens here: the first run must not flood the
// remote with an everything-added changeset.
func (c *Controller) establishBaseline(ctx context.Context) error {
	count, err := c.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		c.mu.Lock()
		c.health.BaselineFiles = count
		c.mu.Unlock()
		c.logger.Info("baseline resumed from previous run", logging.Int("files", count))
		return nil
	}

	c.setPhase(PhaseBaselineEstablishing)
	snapshot, err := scan.Run(ctx, c.cfg.Paths.Root, c.scanOptions()...)
	if err != nil {
		return err
	}
	c.logScanWarnings(ctx, snapshot)
	if err := c.store.ReplaceAll(ctx, snapshot.Files); err != nil {
		return err
	}
	c.completeCycle(snapshot.Count(), "")
	c.logger.Info("baseline established",
		logging.String(logging.FieldEventType, "baseline_established"),
		logging.Int("files", snapshot.Count()),
		logging.Int64("bytes", snapshot.TotalBytes()),
		logging.Duration("scan_duration", snapshot.Duration))
	return nil
}

func (c *Controller) monitor(ctx context.Context) {
	var cycleID int64
	for {
		if ctx.Err() != nil {
			return
		}

		cycleID++
		c.mu.Lock()
		c.health.CycleID = cycleID
		c.mu.Unlock()

		cycleCtx := services.WithCycleID(ctx, cycleID)
		err := c.runCycle(cycleCtx)
		if err == nil {
			c.waitInterval(ctx)
			continue
		}
		if ctx.Err() != nil {
			return
		}

		switch services.Classify(err) {
		case services.DispositionFatal:
			c.recordFatal(err)
			logging.ErrorWithContext(logging.WithContext(cycleCtx, c.logger), "fatal sync failure", "sync_fatal",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify remote credentials"),
				logging.String(logging.FieldImpact, "daemon stopping"))
			return
		case services.DispositionPartial:
			// The remote is reachable but rejected specific paths. Those stay
			// pending and retry on the normal interval; backoff is reserved
			// for a remote that cannot be reached at all.
			c.recordFailure(err)
			c.waitInterval(ctx)
		default:
			failures := c.recordFailure(err)
			if c.maxFailures > 0 && failures >= c.maxFailures {
				ceiling := services.Wrap(services.ErrTransient, "cycle", "monitor",
					fmt.Sprintf("%d consecutive failures reached the configured ceiling", failures), err)
				c.recordFatal(ceiling)
				logging.ErrorWithContext(logging.WithContext(cycleCtx, c.logger), "failure ceiling reached", "failure_ceiling",
					logging.Error(ceiling),
					logging.String(logging.FieldErrorHint, "inspect the remote and restart the daemon"),
					logging.String(logging.FieldImpact, "daemon stopping"))
				return
			}
			c.waitBackoff(cycleCtx, err, failures)
		}
	}
}

func (c *Controller) runCycle(ctx context.Context) error {
	log := logging.WithContext(ctx, c.logger)

	c.setPhase(PhaseScanning)
	snapshot, err := scan.Run(ctx, c.cfg.Paths.Root, c.scanOptions()...)
	if err != nil {
		return err
	}
	c.logScanWarnings(ctx, snapshot)

	c.setPhase(PhaseDetecting)
	baselineFiles, err := c.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	set := change.Detect(snapshot, baselineFiles)
	if set.IsEmpty() {
		log.Debug("no changes detected", logging.Int("files", snapshot.Count()))
		c.completeCycle(snapshot.Count(), "")
		return nil
	}

	c.setPhase(PhaseSyncing)
	log.Info("changes detected", logging.String("changes", set.Summary()))

	// A stop request arriving mid-push must not abort the transfer and leave
	// the remote half-updated. The push and the baseline commit run on a
	// detached context; the loop notices cancellation before the next cycle.
	syncCtx := context.WithoutCancel(ctx)
	result, syncErr := c.engine.Sync(syncCtx, snapshot, set)
	c.recordJournal(syncCtx, set, result, syncErr)

	switch {
	case syncErr == nil:
		if len(result.Skipped) > 0 {
			// Vanished paths stay out of the baseline so the next scan
			// settles them.
			if err := c.store.Apply(syncCtx, result.Upserts, result.Removals); err != nil {
				return err
			}
		} else if err := c.store.ReplaceAll(syncCtx, snapshot.Files); err != nil {
			return err
		}
		count, countErr := c.store.Count(syncCtx)
		if countErr != nil {
			count = snapshot.Count()
		}
		c.completeCycle(count, set.Summary())
		log.Info("sync completed",
			logging.Int("pushed", result.Pushed()),
			logging.String("changes", set.Summary()))
		return nil

	case errors.Is(syncErr, services.ErrPartialSync):
		if err := c.store.Apply(syncCtx, result.Upserts, result.Removals); err != nil {
			return err
		}
		logging.WarnWithContext(log, "partial sync: accepted subset committed", "sync_partial",
			logging.String(logging.FieldErrorHint, "rejected paths retry next cycle"),
			logging.String(logging.FieldImpact, "rejected paths remain unsynchronized"),
			logging.Int("accepted", result.Pushed()),
			logging.Int("rejected", len(result.Receipt.Rejected)))
		return syncErr

	default:
		return syncErr
	}
}

func (c *Controller) recordJournal(ctx context.Context, set change.ChangeSet, result push.Result, syncErr error) {
	outcome := baseline.OutcomeSuccess
	errText := ""
	if syncErr != nil {
		errText = syncErr.Error()
		if errors.Is(syncErr, services.ErrPartialSync) {
			outcome = baseline.OutcomePartial
		} else {
			outcome = baseline.OutcomeFailed
		}
	}

	cycleID, _ := services.CycleIDFromContext(ctx)
	record := baseline.SyncRecord{
		RunID:      c.runID,
		CycleID:    cycleID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Added:      len(set.Added),
		Modified:   len(set.Modified),
		Removed:    len(set.Removed),
		Pushed:     result.Pushed(),
		Failed:     result.Failed(),
		Outcome:    outcome,
		Error:      errText,
	}
	if _, err := c.store.RecordSync(ctx, record); err != nil {
		c.logger.Warn("sync journal write failed", logging.Error(err))
	}
}

func (c *Controller) waitInterval(ctx context.Context) {
	c.setPhase(PhaseWaiting)
	timer := time.NewTimer(c.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-c.wake:
		c.logger.Debug("early scan trigger received")
	}
}

func (c *Controller) waitBackoff(ctx context.Context, err error, failures int) {
	delay := Delay(c.backoffBase, c.backoffMax, failures)
	c.setPhase(PhaseBackingOff)
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "sync failed; backing off", "sync_retry",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "remote unreachable or rejecting pushes"),
		logging.String(logging.FieldImpact, "changes remain unsynchronized until retry"),
		logging.Int("consecutive_failures", failures),
		logging.Duration("delay", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-c.wake:
		c.logger.Debug("backoff interrupted by sync trigger")
	}
}

// scanOptions derives the scanner configuration: user exclusion patterns,
// the file size cap, and the daemon's own state directories when they live
// inside the monitored root.
func (c *Controller) scanOptions() []scan.Option {
	opts := []scan.Option{}
	if len(c.cfg.Scan.Excludes) > 0 {
		opts = append(opts, scan.WithExclude(c.cfg.Scan.Excludes...))
	}
	if c.cfg.Scan.MaxFileSizeMB > 0 {
		opts = append(opts, scan.WithMaxFileSize(int64(c.cfg.Scan.MaxFileSizeMB)*1024*1024))
	}
	if inside := internalDirsWithin(c.cfg); len(inside) > 0 {
		opts = append(opts, scan.WithExcludeFunc(func(rel string, isDir bool) bool {
			for _, dir := range inside {
				if rel == dir || strings.HasPrefix(rel, dir+"/") {
					return true
				}
			}
			return false
		}))
	}
	return opts
}

func (c *Controller) logScanWarnings(ctx context.Context, snapshot *scan.Snapshot) {
	if len(snapshot.Warnings) == 0 {
		return
	}
	log := logging.WithContext(ctx, c.logger)
	for _, warning := range snapshot.Warnings {
		logging.WarnWithContext(log, "path skipped during scan", "scan_warning",
			logging.String(logging.FieldErrorHint, "check permissions and size limits"),
			logging.String(logging.FieldImpact, "path not synchronized"),
			logging.String("path", warning.Path),
			logging.String("reason", warning.Reason))
	}
}

// internalDirsWithin lists daemon-owned directories as slash-relative paths
// under the monitored root. Directories outside the root are omitted.
func internalDirsWithin(cfg *config.Config) []string {
	var inside []string
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Remote.MirrorDir} {
		if dir == "" {
			continue
		}
		rel, err := filepath.Rel(cfg.Paths.Root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		inside = append(inside, filepath.ToSlash(rel))
	}
	return inside
}
