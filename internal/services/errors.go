package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuthFailed     = errors.New("authentication failed")
	ErrTransient      = errors.New("transient remote failure")
	ErrPartialSync    = errors.New("partial sync failure")
	ErrFilesystem     = errors.New("filesystem access error")
	ErrAlreadyRunning = errors.New("daemon already running")
	ErrStaleLock      = errors.New("stale lock")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Disposition describes how the cycle controller should react to a failure.
type Disposition string

const (
	// DispositionRetry schedules another attempt after backoff.
	DispositionRetry Disposition = "retry"
	// DispositionPartial commits the synced subset and retries the remainder.
	DispositionPartial Disposition = "partial"
	// DispositionFatal stops the daemon.
	DispositionFatal Disposition = "fatal"
)

// Classify maps a sync failure to the reaction the cycle controller applies.
// Unrecognized errors are treated as transient so a single odd failure never
// takes the daemon down.
func Classify(err error) Disposition {
	switch {
	case errors.Is(err, ErrAuthFailed):
		return DispositionFatal
	case errors.Is(err, ErrPartialSync):
		return DispositionPartial
	default:
		return DispositionRetry
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
