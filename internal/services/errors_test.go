package services_test

import (
	"errors"
	"strings"
	"testing"

	"shuttle/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "push", "deliver", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"push", "deliver", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "scan", "walk", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.Disposition
	}{
		{"auth failure is fatal", services.Wrap(services.ErrAuthFailed, "remote", "authenticate", "rejected", nil), services.DispositionFatal},
		{"partial keeps synced subset", services.Wrap(services.ErrPartialSync, "push", "deliver", "2 of 3", nil), services.DispositionPartial},
		{"transient retries", services.Wrap(services.ErrTransient, "remote", "push", "timeout", errors.New("dial")), services.DispositionRetry},
		{"unknown errors retry", errors.New("surprise"), services.DispositionRetry},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
