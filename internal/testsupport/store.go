package testsupport

import (
	"testing"

	"shuttle/internal/baseline"
	"shuttle/internal/config"
)

// MustOpenStore opens a baseline.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *baseline.Store {
	t.Helper()

	store, err := baseline.Open(cfg)
	if err != nil {
		t.Fatalf("baseline.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
