package remote

import (
	"context"
	"fmt"
	"time"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

// Action tells the remote what to do with one path.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Item is one changeset entry on the wire. Content is present for add and
// update actions and empty for deletes.
type Item struct {
	Path        string    `msgpack:"path"`
	Action      Action    `msgpack:"action"`
	Fingerprint string    `msgpack:"fingerprint,omitempty"`
	Size        int64     `msgpack:"size,omitempty"`
	ModifiedAt  time.Time `msgpack:"modified_at,omitempty"`
	Content     []byte    `msgpack:"content,omitempty"`
}

// Batch is the unit the sync engine hands to a client: every pending change
// from one cycle.
type Batch struct {
	RunID   string    `msgpack:"run_id"`
	CycleID int64     `msgpack:"cycle_id"`
	SentAt  time.Time `msgpack:"sent_at"`
	Items   []Item    `msgpack:"items"`
}

// Paths lists the batch item paths in order.
func (b Batch) Paths() []string {
	paths := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		paths = append(paths, item.Path)
	}
	return paths
}

// Rejection names a path the remote refused and why.
type Rejection struct {
	Path   string `msgpack:"path"`
	Reason string `msgpack:"reason"`
}

// Receipt reports what the remote accepted from a batch. On a partial
// failure both slices are populated; every batch path appears in exactly one
// of them.
type Receipt struct {
	Accepted []string
	Rejected []Rejection
}

// Session is proof of a completed authentication. A zero ExpiresAt never
// expires.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session can still be used at the given time.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Client is the narrow contract to a remote repository. Authenticate is
// called once per process lifetime and again only when the session expires;
// Push sends one batch and classifies failures via the services markers so
// the cycle controller can decide between retry, partial commit, and stop.
type Client interface {
	Name() string
	Authenticate(ctx context.Context) (Session, error)
	Push(ctx context.Context, session Session, batch Batch) (Receipt, error)
}

// NewClient builds the configured client variant.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.Remote.Kind {
	case config.RemoteKindHTTP:
		return newHTTPClient(cfg), nil
	case config.RemoteKindMirror:
		return newMirrorClient(cfg), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "remote", "new", fmt.Sprintf("unknown remote kind %q", cfg.Remote.Kind), nil)
	}
}
