package dockerctl

import (
	"errors"
	"testing"
)

func TestOperationGateBeginAndRelease(t *testing.T) {
	var gate OperationGate

	if op := gate.Current(); op != "" {
		t.Errorf("expected idle gate, got %q", op)
	}

	release, err := gate.Begin("build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op := gate.Current(); op != "build" {
		t.Errorf("expected current op 'build', got %q", op)
	}

	_, err = gate.Begin("restart")
	if err == nil {
		t.Fatal("expected busy error, got nil")
	}
	var busyErr *BusyError
	if !errors.As(err, &busyErr) {
		t.Fatalf("expected BusyError, got %T: %v", err, err)
	}
	if busyErr.Running != "build" || busyErr.Requested != "restart" {
		t.Errorf("expected build/restart, got %q/%q", busyErr.Running, busyErr.Requested)
	}

	release()
	if op := gate.Current(); op != "" {
		t.Errorf("expected gate to clear after release, got %q", op)
	}

	release2, err := gate.Begin("restart")
	if err != nil {
		t.Fatalf("expected gate to be reusable, got: %v", err)
	}
	release2()
}

func TestOperationGateReleaseIdempotent(t *testing.T) {
	var gate OperationGate

	release, err := gate.Begin("build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	release()

	// A stale second release must not clear a newer claim
	release3, err := gate.Begin("run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	if op := gate.Current(); op != "run" {
		t.Errorf("expected stale release to be a no-op, gate holds %q", op)
	}
	release3()
}
