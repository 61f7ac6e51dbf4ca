package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shuttle/internal/change"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/scan"
	"shuttle/internal/services"
	"shuttle/internal/services/remote"
)

// Engine adapts changesets onto the remote client. It owns the session:
// authentication happens once per process lifetime and is repeated only when
// the remote reports the session expired.
type Engine struct {
	client  remote.Client
	root    string
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	session remote.Session
}

// NewEngine builds the sync engine for the configured remote.
func NewEngine(cfg *config.Config, client remote.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.Remote.PushesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Remote.PushesPerSecond), 1)
	}
	return &Engine{
		client:  client,
		root:    cfg.Paths.Root,
		limiter: limiter,
		logger:  logging.NewComponentLogger(logger, "push"),
		now:     time.Now,
	}
}

// Authenticate establishes the remote session. Safe to call at any point;
// a still-valid session is reused.
func (e *Engine) Authenticate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.ensureSessionLocked(ctx)
	return err
}

// ensureSessionLocked reports whether it had to perform a fresh
// authentication. Callers hold e.mu.
func (e *Engine) ensureSessionLocked(ctx context.Context) (bool, error) {
	if e.session.Valid(e.now()) {
		return false, nil
	}
	session, err := e.client.Authenticate(ctx)
	if err != nil {
		return false, err
	}
	e.session = session
	e.logger.Info("remote session established",
		logging.String("remote", e.client.Name()),
		logging.Bool("expires", !session.ExpiresAt.IsZero()))
	return true, nil
}

// Result describes what one sync attempt accomplished. Upserts and Removals
// cover only the accepted subset, so the caller can commit exactly what the
// remote acknowledged.
type Result struct {
	Receipt    remote.Receipt
	Upserts    []scan.FileRecord
	Removals   []string
	Skipped    []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Pushed returns how many paths the remote accepted.
func (r Result) Pushed() int { return len(r.Receipt.Accepted) }

// Failed returns how many paths did not make it: rejected by the remote or
// skipped before the push.
func (r Result) Failed() int { return len(r.Receipt.Rejected) + len(r.Skipped) }

// Sync pushes one changeset. The error, when non-nil, carries a services
// marker: ErrAuthFailed is fatal, ErrTransient retries the whole set next
// cycle, ErrPartialSync means Result holds an accepted subset to commit.
func (e *Engine) Sync(ctx context.Context, snapshot *scan.Snapshot, set change.ChangeSet) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := Result{StartedAt: e.now()}

	refreshed, err := e.ensureSessionLocked(ctx)
	if err != nil {
		result.FinishedAt = e.now()
		return result, err
	}

	batch, skipped := e.buildBatch(ctx, snapshot, set)
	result.Skipped = skipped
	if len(batch.Items) == 0 {
		// Every pending path vanished between scan and push. The next scan
		// settles the difference.
		result.FinishedAt = e.now()
		return result, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			result.FinishedAt = e.now()
			return result, err
		}
	}

	receipt, pushErr := e.client.Push(ctx, e.session, batch)
	if errors.Is(pushErr, services.ErrAuthFailed) && !refreshed {
		// A session carried over from an earlier cycle may simply have
		// expired. One fresh authentication decides whether this is fatal.
		e.session = remote.Session{}
		if _, authErr := e.ensureSessionLocked(ctx); authErr != nil {
			result.FinishedAt = e.now()
			return result, authErr
		}
		receipt, pushErr = e.client.Push(ctx, e.session, batch)
	}

	result.Receipt = receipt
	result.FinishedAt = e.now()

	if pushErr != nil && !errors.Is(pushErr, services.ErrPartialSync) {
		return result, pushErr
	}

	for _, path := range receipt.Accepted {
		if record, ok := snapshot.Files[path]; ok {
			result.Upserts = append(result.Upserts, record)
		} else {
			result.Removals = append(result.Removals, path)
		}
	}
	return result, pushErr
}
