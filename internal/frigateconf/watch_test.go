package frigateconf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func watchFixture(t *testing.T) (string, *Watcher, *int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	fired := 0
	w := NewWatcher(path, func(string) { fired++ })
	return path, w, &fired
}

// TestWatcherDetectsContentChange tests that an outside edit fires the
// callback once
func TestWatcherDetectsContentChange(t *testing.T) {
	path, w, fired := watchFixture(t)
	if err := os.WriteFile(path, []byte("version: 0.17-0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.MarkClean()

	w.poll()
	if *fired != 0 {
		t.Fatalf("callback fired without a change: %d", *fired)
	}

	// A longer write guarantees a size change even when the mtime
	// granularity hides the update.
	if err := os.WriteFile(path, []byte("version: 0.17-0\ncameras: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.poll()
	if *fired != 1 {
		t.Fatalf("callback fired %d times, want 1", *fired)
	}

	// No further change, no further callback.
	w.poll()
	if *fired != 1 {
		t.Fatalf("callback fired again without a change: %d", *fired)
	}
}

// TestWatcherIgnoresTouchWithoutContentChange tests the content hash guard
func TestWatcherIgnoresTouchWithoutContentChange(t *testing.T) {
	path, w, fired := watchFixture(t)
	content := []byte("version: 0.17-0\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	w.MarkClean()

	// Rewrite the same bytes with a bumped mtime.
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	w.poll()
	if *fired != 0 {
		t.Errorf("callback fired %d times for identical content", *fired)
	}
}

// TestWatcherSuppress tests that self-saves do not fire and are not
// replayed after Resume
func TestWatcherSuppress(t *testing.T) {
	path, w, fired := watchFixture(t)
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.MarkClean()

	w.Suppress()
	if err := os.WriteFile(path, []byte("a: 1\nb: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.poll()
	w.Resume()
	w.poll()
	if *fired != 0 {
		t.Fatalf("suppressed change fired %d times", *fired)
	}

	// Later outside edits still fire.
	if err := os.WriteFile(path, []byte("a: 1\nb: 2\nc: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.poll()
	if *fired != 1 {
		t.Fatalf("callback fired %d times after resume, want 1", *fired)
	}
}

// TestWatcherFileAppears tests that file creation is recorded silently
func TestWatcherFileAppears(t *testing.T) {
	path, w, fired := watchFixture(t)
	w.MarkClean() // file does not exist yet

	if err := os.WriteFile(path, []byte("version: 0.17-0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.poll()
	if *fired != 0 {
		t.Fatalf("file creation fired the callback %d times", *fired)
	}

	if err := os.WriteFile(path, []byte("version: 0.17-0\ncameras: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.poll()
	if *fired != 1 {
		t.Fatalf("callback fired %d times after creation settled, want 1", *fired)
	}
}

// TestWatcherRunStopsOnCancel tests the polling loop shutdown
func TestWatcherRunStopsOnCancel(t *testing.T) {
	_, w, _ := watchFixture(t)
	w.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
