package daemon

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/services"
)

// ProcessLock is the single-instance guard: an advisory flock plus a plain
// text pid file. The flock is authoritative because the kernel releases it
// when the holder dies; the pid file exists for operators and for cleaning
// up after unclean crashes.
type ProcessLock struct {
	PID        int
	AcquiredAt time.Time
	LockPath   string
	PIDPath    string

	fl *flock.Flock
}

// Acquire takes the instance lock for this process. A live holder yields
// services.ErrAlreadyRunning without touching any state; a pid file left by
// a dead process is removed and acquisition proceeds.
func Acquire(cfg *config.Config, logger *slog.Logger) (*ProcessLock, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "daemon", "acquire lock", "prepare directories", err)
	}

	lockPath := cfg.LockFilePath()
	pidPath := cfg.PIDFilePath()

	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "daemon", "acquire lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrAlreadyRunning, "daemon", "acquire lock",
			"another shuttle daemon holds "+lockPath, nil)
	}

	// The flock was free, so any pid file on disk is left over from an
	// earlier run that did not shut down cleanly.
	if pid, found := readPIDFile(pidPath); found && pid != os.Getpid() {
		if processAlive(pid) {
			logging.WarnWithContext(logger, "pid file points at a live process that does not hold the lock", "stale_pid_recycled",
				logging.Int("pid", pid),
				logging.String(logging.FieldErrorHint, "the pid was likely recycled after a crash"),
				logging.String(logging.FieldImpact, "pid file will be overwritten"))
		} else {
			staleErr := services.Wrap(services.ErrStaleLock, "daemon", "acquire lock",
				"pid "+strconv.Itoa(pid)+" is dead", nil)
			logging.WarnWithContext(logger, "removed stale pid file from a previous run", "stale_lock_recovered",
				logging.Error(staleErr),
				logging.Int("pid", pid),
				logging.String(logging.FieldErrorHint, "previous daemon exited uncleanly"),
				logging.String(logging.FieldImpact, "none, startup continues"))
		}
		if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = fl.Unlock()
			return nil, services.Wrap(services.ErrFilesystem, "daemon", "acquire lock", "remove stale pid file", err)
		}
	}

	if err := writePIDFile(pidPath); err != nil {
		_ = fl.Unlock()
		return nil, services.Wrap(services.ErrFilesystem, "daemon", "acquire lock", "write pid file", err)
	}

	return &ProcessLock{
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC(),
		LockPath:   lockPath,
		PIDPath:    pidPath,
		fl:         fl,
	}, nil
}

// Release drops the flock and removes the pid file. Safe to call once the
// daemon has finished shutting down.
func (l *ProcessLock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.PIDPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = l.fl.Unlock()
		return err
	}
	if l.fl != nil {
		return l.fl.Unlock()
	}
	return nil
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func readPIDFile(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive probes a pid with signal 0. EPERM still means the process
// exists, just under another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
