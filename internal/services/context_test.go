package services_test

import (
	"context"
	"testing"

	"shuttle/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "20260823T101500.000Z")
	ctx = services.WithCycleID(ctx, 42)
	ctx = services.WithPhase(ctx, "syncing")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "20260823T101500.000Z" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.CycleIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected cycle id: %v %v", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "syncing" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestPhaseBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPhase(ctx, "")
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
}
