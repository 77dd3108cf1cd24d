package discovery

import (
	"context"
	"testing"
	"time"
)

func TestRegistry_BeginRejectsSecondScan(t *testing.T) {
	registry := NewRegistry()

	first, _, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatalf("first Begin() error = %v", err)
	}

	_, _, err = registry.Begin(context.Background())
	if err == nil {
		t.Fatal("second Begin() succeeded, want busy error")
	}
	if !IsBusy(err) {
		t.Errorf("second Begin() error = %v, want busy", err)
	}

	// After the first session ends a new one is allowed
	registry.End(first)
	second, _, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() after End() error = %v", err)
	}
	registry.End(second)
}

func TestRegistry_EndIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	session, _, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	registry.End(session)
	registry.End(session) // must not panic on double close
	registry.End(nil)     // nil-safe
}

func TestRegistry_BeginContextCancelledOnEnd(t *testing.T) {
	registry := NewRegistry()

	session, ctx, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	registry.End(session)

	select {
	case <-ctx.Done():
	default:
		t.Error("session context not cancelled after End()")
	}
}

func TestRegistry_Stop(t *testing.T) {
	registry := NewRegistry()

	if registry.Stop() {
		t.Error("Stop() with no session = true, want false")
	}

	session, ctx, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if !registry.Stop() {
		t.Error("Stop() with active session = false, want true")
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("session context not cancelled after Stop()")
	}

	registry.End(session)
}

func TestRegistry_ShutdownWaitsForSessions(t *testing.T) {
	registry := NewRegistry()

	session, ctx, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a scan goroutine that exits promptly on cancellation
	go func() {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		registry.End(session)
	}()

	if err := registry.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
	if registry.Active() != nil {
		t.Error("session still active after Shutdown()")
	}
}

func TestRegistry_ShutdownAbandonsStuckSessions(t *testing.T) {
	registry := NewRegistry()

	session, _, err := registry.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	_ = session // never ended: simulates a stuck scan

	start := time.Now()
	err = registry.Shutdown(context.Background())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Shutdown() error = nil, want shutdown timeout")
	}
	discErr, ok := err.(*DiscoveryError)
	if !ok || discErr.Type != ErrTypeShutdown {
		t.Errorf("Shutdown() error = %v, want ErrTypeShutdown", err)
	}

	// Bounded: roughly the grace period, never much more
	if elapsed > ShutdownGrace+500*time.Millisecond {
		t.Errorf("Shutdown() took %v, want ~%v", elapsed, ShutdownGrace)
	}
}

func TestRegistry_ShutdownEmpty(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on empty registry error = %v", err)
	}
}

func TestNewBusyError_Message(t *testing.T) {
	err := NewBusyError(time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC))
	if !IsBusy(err) {
		t.Error("IsBusy() = false for busy error")
	}
	want := "a discovery scan has been running since 14:30:05"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}
