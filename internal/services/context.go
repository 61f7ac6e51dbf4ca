package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	cycleIDKey   contextKey = "cycle_id"
	phaseKey     contextKey = "phase"
	requestIDKey contextKey = "request_id"
)

// WithRunID annotates context with the daemon run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the daemon run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCycleID annotates context with the monitoring cycle sequence number.
func WithCycleID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext extracts the cycle sequence number if present.
func CycleIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(cycleIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithPhase annotates context with the controller phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the controller phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
