package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"shuttle/internal/config"
	"shuttle/internal/services"
)

const userAgent = "Shuttle-Go/0.1.0"

type httpClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func newHTTPClient(cfg *config.Config) *httpClient {
	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		endpoint: strings.TrimRight(cfg.Remote.Endpoint, "/"),
		token:    cfg.Remote.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Name() string { return "http" }

type authResponse struct {
	Token     string    `msgpack:"token"`
	ExpiresAt time.Time `msgpack:"expires_at"`
}

// Authenticate exchanges the configured token for a session. The remote may
// return a short-lived session token; an empty response body means the
// configured token is used directly.
func (c *httpClient) Authenticate(ctx context.Context) (Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/auth", nil)
	if err != nil {
		return Session{}, services.Wrap(services.ErrTransient, "remote", "authenticate", "build auth request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Session{}, services.Wrap(services.ErrTransient, "remote", "authenticate", "auth request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Session{}, services.Wrap(services.ErrAuthFailed, "remote", "authenticate", fmt.Sprintf("remote rejected credentials (%d)", resp.StatusCode), nil)
	case resp.StatusCode >= 300:
		body := readErrorBody(resp.Body)
		return Session{}, services.Wrap(services.ErrTransient, "remote", "authenticate", fmt.Sprintf("remote returned %d: %s", resp.StatusCode, body), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Session{}, services.Wrap(services.ErrTransient, "remote", "authenticate", "read auth response", err)
	}
	if len(body) == 0 {
		return Session{Token: c.token}, nil
	}

	var auth authResponse
	if err := msgpack.Unmarshal(body, &auth); err != nil {
		return Session{}, services.Wrap(services.ErrTransient, "remote", "authenticate", "decode auth response", err)
	}
	if auth.Token == "" {
		auth.Token = c.token
	}
	return Session{Token: auth.Token, ExpiresAt: auth.ExpiresAt}, nil
}

type pushResponse struct {
	Rejected []Rejection `msgpack:"rejected"`
}

// Push posts one msgpack-encoded batch. A 207 response carries the rejected
// subset and surfaces as a partial-sync error with the receipt filled in.
func (c *httpClient) Push(ctx context.Context, session Session, batch Batch) (Receipt, error) {
	encoded, err := encodeBatch(batch)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", "encode batch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/sync", bytes.NewReader(encoded))
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", "build sync request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("Content-Type", "application/msgpack")

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", "sync request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Receipt{}, services.Wrap(services.ErrAuthFailed, "remote", "push", fmt.Sprintf("remote rejected session (%d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusMultiStatus:
		return c.partialReceipt(resp.Body, batch)
	case resp.StatusCode >= 300:
		body := readErrorBody(resp.Body)
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", fmt.Sprintf("remote returned %d: %s", resp.StatusCode, body), nil)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return Receipt{Accepted: batch.Paths()}, nil
}

func (c *httpClient) partialReceipt(body io.Reader, batch Batch) (Receipt, error) {
	data, err := io.ReadAll(io.LimitReader(body, 1024*1024))
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", "read partial response", err)
	}
	var partial pushResponse
	if err := msgpack.Unmarshal(data, &partial); err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "remote", "push", "decode partial response", err)
	}

	rejected := make(map[string]struct{}, len(partial.Rejected))
	for _, rejection := range partial.Rejected {
		rejected[rejection.Path] = struct{}{}
	}
	receipt := Receipt{Rejected: partial.Rejected}
	for _, path := range batch.Paths() {
		if _, bad := rejected[path]; !bad {
			receipt.Accepted = append(receipt.Accepted, path)
		}
	}
	return receipt, services.Wrap(services.ErrPartialSync, "remote", "push", fmt.Sprintf("remote rejected %d of %d paths", len(partial.Rejected), len(batch.Items)), nil)
}

// encodeBatch serializes a batch with sorted map keys so identical batches
// produce identical bytes.
func encodeBatch(batch Batch) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(batch); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 2048))
	return strings.TrimSpace(string(data))
}
