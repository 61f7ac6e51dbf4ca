package cycle

import "time"

// Health is the controller's read-mostly state snapshot. The controller
// writes it; the health monitor, IPC server, and status command only read.
type Health struct {
	Running              bool
	Phase                Phase
	RunID                string
	StartedAt            time.Time
	CycleID              int64
	LastCycleCompletedAt time.Time
	ConsecutiveFailures  int
	LastError            string
	FatalError           string
	BaselineFiles        int
	LastSyncSummary      string
}

// Degraded reports whether the controller is running but failing.
func (h Health) Degraded() bool {
	return h.Running && h.ConsecutiveFailures > 0
}

// Stalled reports whether the controller has gone too long without
// completing a cycle: more than threshold intervals since the last
// completion while running. A zero threshold disables the check.
func (h Health) Stalled(now time.Time, interval time.Duration, threshold int) bool {
	if !h.Running || threshold <= 0 || interval <= 0 {
		return false
	}
	if !h.Phase.Monitoring() {
		return false
	}
	reference := h.LastCycleCompletedAt
	if reference.IsZero() {
		reference = h.StartedAt
	}
	if reference.IsZero() {
		return false
	}
	return now.Sub(reference) > time.Duration(threshold)*interval
}

// Condition collapses the health fields into the single word the status
// command prints. Stalled beats degraded beats running; a stopped
// controller is stopped no matter what the counters say.
func (h Health) Condition(now time.Time, interval time.Duration, stallThreshold int) string {
	switch {
	case !h.Running:
		return "stopped"
	case h.Stalled(now, interval, stallThreshold):
		return "stalled"
	case h.Degraded():
		return "degraded"
	default:
		return "running"
	}
}

// Health returns a copy of the controller's current state.
func (c *Controller) Health() Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

func (c *Controller) setPhase(phase Phase) {
	c.mu.Lock()
	c.health.Phase = phase
	c.mu.Unlock()
}

func (c *Controller) completeCycle(baselineFiles int, summary string) {
	c.mu.Lock()
	c.health.LastCycleCompletedAt = time.Now().UTC()
	c.health.ConsecutiveFailures = 0
	c.health.LastError = ""
	c.health.BaselineFiles = baselineFiles
	if summary != "" {
		c.health.LastSyncSummary = summary
	}
	c.mu.Unlock()
}

func (c *Controller) recordFailure(err error) int {
	c.mu.Lock()
	c.health.ConsecutiveFailures++
	c.health.LastError = err.Error()
	failures := c.health.ConsecutiveFailures
	c.mu.Unlock()
	return failures
}

func (c *Controller) recordFatal(err error) {
	c.mu.Lock()
	c.health.FatalError = err.Error()
	c.health.LastError = err.Error()
	c.fatalErr = err
	c.mu.Unlock()
}

// FatalError returns the error that forced the controller to stop, or nil.
func (c *Controller) FatalError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fatalErr
}
