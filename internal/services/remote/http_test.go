package remote_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"shuttle/internal/config"
	"shuttle/internal/services"
	"shuttle/internal/services/remote"
	"shuttle/internal/testsupport"
)

func httpConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t, testsupport.WithRemoteHTTP(endpoint, "secret-token"))
}

func mustClient(t *testing.T, cfg *config.Config) remote.Client {
	t.Helper()
	client, err := remote.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func sampleBatch() remote.Batch {
	return remote.Batch{
		RunID:   "run-1",
		CycleID: 7,
		SentAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []remote.Item{
			{Path: "a.txt", Action: remote.ActionAdd, Fingerprint: "aa", Size: 5, Content: []byte("hello")},
			{Path: "b.txt", Action: remote.ActionUpdate, Fingerprint: "bb", Size: 5, Content: []byte("world")},
			{Path: "c.txt", Action: remote.ActionDelete},
		},
	}
}

func TestAuthenticateExchangesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		payload, err := msgpack.Marshal(map[string]any{
			"token":      "session-abc",
			"expires_at": time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("marshal auth response: %v", err)
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	session, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if session.Token != "session-abc" {
		t.Fatalf("unexpected session token: %q", session.Token)
	}
	if !session.Valid(time.Now()) {
		t.Fatal("expected session to be valid")
	}
}

func TestAuthenticateEmptyBodyUsesConfiguredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	session, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if session.Token != "secret-token" {
		t.Fatalf("expected configured token, got %q", session.Token)
	}
}

func TestAuthenticateRejectionIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrAuthFailed) {
		t.Fatalf("expected auth marker, got %v", err)
	}
}

func TestAuthenticateServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestPushSendsMsgpackBatch(t *testing.T) {
	var received remote.Batch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-abc" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/msgpack" {
			t.Errorf("unexpected content type: %q", got)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := msgpack.Unmarshal(body, &received); err != nil {
			t.Fatalf("decode batch: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	batch := sampleBatch()
	receipt, err := client.Push(context.Background(), remote.Session{Token: "session-abc"}, batch)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if len(receipt.Accepted) != 3 || len(receipt.Rejected) != 0 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if received.RunID != "run-1" || received.CycleID != 7 {
		t.Fatalf("batch header not round-tripped: %+v", received)
	}
	if len(received.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(received.Items))
	}
	if string(received.Items[0].Content) != "hello" {
		t.Fatalf("content not round-tripped: %q", received.Items[0].Content)
	}
}

func TestPushMultiStatusIsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := msgpack.Marshal(map[string]any{
			"rejected": []map[string]any{
				{"path": "b.txt", "reason": "quota exceeded"},
			},
		})
		if err != nil {
			t.Fatalf("marshal partial response: %v", err)
		}
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	receipt, err := client.Push(context.Background(), remote.Session{Token: "session-abc"}, sampleBatch())
	if !errors.Is(err, services.ErrPartialSync) {
		t.Fatalf("expected partial marker, got %v", err)
	}
	if len(receipt.Accepted) != 2 {
		t.Fatalf("unexpected accepted set: %v", receipt.Accepted)
	}
	if len(receipt.Rejected) != 1 || receipt.Rejected[0].Path != "b.txt" {
		t.Fatalf("unexpected rejected set: %v", receipt.Rejected)
	}
}

func TestPushExpiredSessionIsAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	_, err := client.Push(context.Background(), remote.Session{Token: "stale"}, sampleBatch())
	if !errors.Is(err, services.ErrAuthFailed) {
		t.Fatalf("expected auth marker, got %v", err)
	}
}

func TestPushRateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	_, err := client.Push(context.Background(), remote.Session{Token: "session-abc"}, sampleBatch())
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestPushConnectionRefusedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := mustClient(t, httpConfig(t, server.URL))
	_, err := client.Push(context.Background(), remote.Session{Token: "session-abc"}, sampleBatch())
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestNewClientUnknownKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Remote.Kind = "carrier-pigeon"
	if _, err := remote.NewClient(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
