package cycle

// Phase names the controller's position in its state machine. Scanning,
// detecting, syncing, waiting, and backing off are all sub-states of the
// monitoring loop.
type Phase string

const (
	PhaseStarting             Phase = "starting"
	PhaseAuthenticating       Phase = "authenticating"
	PhaseBaselineEstablishing Phase = "baseline_establishing"
	PhaseScanning             Phase = "scanning"
	PhaseDetecting            Phase = "detecting"
	PhaseSyncing              Phase = "syncing"
	PhaseWaiting              Phase = "waiting"
	PhaseBackingOff           Phase = "error_backoff"
	PhaseStopping             Phase = "stopping"
	PhaseStopped              Phase = "stopped"
)

// Monitoring reports whether the phase belongs to the monitoring loop.
func (p Phase) Monitoring() bool {
	switch p {
	case PhaseScanning, PhaseDetecting, PhaseSyncing, PhaseWaiting, PhaseBackingOff:
		return true
	}
	return false
}
