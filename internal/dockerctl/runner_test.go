package dockerctl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// writeMockDocker installs an executable shell script standing in for
// the docker binary and returns its path.
func writeMockDocker(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mock-docker")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to create mock docker: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.DockerPath != "docker" {
		t.Errorf("expected DockerPath to be 'docker', got %s", config.DockerPath)
	}

	if config.CheckoutDir != "frigate" {
		t.Errorf("expected CheckoutDir to be 'frigate', got %s", config.CheckoutDir)
	}

	if config.Timeout != 30*time.Minute {
		t.Errorf("expected Timeout to be 30 minutes, got %s", config.Timeout)
	}

	if config.QueryTimeout != 10*time.Second {
		t.Errorf("expected QueryTimeout to be 10 seconds, got %s", config.QueryTimeout)
	}
}

func TestNewRunner(t *testing.T) {
	config := Config{
		DockerPath:   "/usr/bin/docker",
		CheckoutDir:  "/opt/frigate",
		Timeout:      time.Minute,
		QueryTimeout: time.Second,
	}

	logger := zap.NewNop()
	runner := NewRunner(config, logger)

	if runner == nil {
		t.Fatal("expected non-nil runner")
	}

	if runner.config.DockerPath != config.DockerPath {
		t.Errorf("expected DockerPath %s, got %s", config.DockerPath, runner.config.DockerPath)
	}

	if runner.logger != logger {
		t.Error("expected logger to be set")
	}

	if runner.logPoll != defaultLogPollInterval {
		t.Errorf("expected log poll interval %s, got %s", defaultLogPollInterval, runner.logPoll)
	}

	// A nil logger must not panic later
	runner = NewRunner(config, nil)
	if runner.logger == nil {
		t.Error("expected nil logger to be replaced")
	}
}

func TestRunnerBufferedOutput(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `echo "stdout line"
echo "stderr line" >&2
exit 0`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	result, err := runner.docker(context.Background(), 5*time.Second, "", nil, "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "stdout line") {
		t.Errorf("expected stdout to contain 'stdout line', got: %q", result.Stdout)
	}

	if !strings.Contains(result.Stderr, "stderr line") {
		t.Errorf("expected stderr to contain 'stderr line', got: %q", result.Stderr)
	}

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}

	if result.Duration == 0 {
		t.Error("expected duration to be set")
	}
}

func TestRunnerStreamingOutput(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `echo "step one"
echo "step two"
echo "warning" >&2
exit 0`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	var mu sync.Mutex
	var lines []string
	onLine := func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	}

	result, err := runner.docker(context.Background(), 5*time.Second, "", onLine, "build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	got := strings.Join(lines, "\n")
	mu.Unlock()

	for _, want := range []string{"step one", "step two", "warning"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected callback to receive %q, got lines: %q", want, got)
		}
	}

	// Streamed output is captured too
	if !strings.Contains(result.Stdout, "step one") || !strings.Contains(result.Stdout, "step two") {
		t.Errorf("expected captured stdout, got: %q", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "warning") {
		t.Errorf("expected captured stderr, got: %q", result.Stderr)
	}
}

func TestRunnerNonZeroExit(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `echo "no such container" >&2
exit 1`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	_, err := runner.docker(context.Background(), 5*time.Second, "", nil, "stop", "frigate")
	if err == nil {
		t.Fatal("expected error for non-zero exit code, got nil")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T: %v", err, err)
	}

	if cmdErr.Op != "stop" {
		t.Errorf("expected op 'stop', got %q", cmdErr.Op)
	}
	if cmdErr.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", cmdErr.ExitCode)
	}
	if !strings.Contains(cmdErr.Stderr, "no such container") {
		t.Errorf("expected stderr to carry command output, got: %q", cmdErr.Stderr)
	}
}

func TestRunnerCommandNotFound(t *testing.T) {
	config := DefaultConfig()
	config.DockerPath = "/nonexistent/docker/binary"
	runner := NewRunner(config, zap.NewNop())

	_, err := runner.docker(context.Background(), 5*time.Second, "", nil, "info")
	if err == nil {
		t.Fatal("expected error for nonexistent docker binary, got nil")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T: %v", err, err)
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("expected exit code -1 for unstarted command, got %d", cmdErr.ExitCode)
	}
}

func TestRunnerTimeout(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `exec sleep 10`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	start := time.Now()
	_, err := runner.docker(context.Background(), 100*time.Millisecond, "", nil, "build")
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.Op != "build" {
		t.Errorf("expected op 'build', got %q", timeoutErr.Op)
	}

	// SIGTERM should take the sleep down right away, well inside the
	// kill grace window
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took too long to enforce: %s", elapsed)
	}
}

func TestRunnerContextCancellation(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `exec sleep 10`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := runner.docker(ctx, 5*time.Second, "", nil, "build")
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took too long to enforce: %s", elapsed)
	}
}

func TestRunnerAlreadyCancelledContext(t *testing.T) {
	tempDir := t.TempDir()
	mock := writeMockDocker(t, tempDir, `exit 0`)

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.docker(ctx, 5*time.Second, "", nil, "info")
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestRunnerWorkingDirectory(t *testing.T) {
	tempDir := t.TempDir()
	pwdLog := filepath.Join(tempDir, "pwd.log")
	mock := writeMockDocker(t, tempDir, `pwd > "`+pwdLog+`"
exit 0`)

	workDir := filepath.Join(tempDir, "checkout")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}

	config := DefaultConfig()
	config.DockerPath = mock
	runner := NewRunner(config, zap.NewNop())

	if _, err := runner.docker(context.Background(), 5*time.Second, workDir, nil, "build"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(pwdLog)
	if err != nil {
		t.Fatalf("failed to read pwd log: %v", err)
	}
	if got := strings.TrimSpace(string(data)); !strings.HasSuffix(got, "checkout") {
		t.Errorf("expected command to run in checkout dir, pwd was %q", got)
	}
}

func TestScanIntoLongLines(t *testing.T) {
	// Docker build output can exceed bufio.Scanner's default 64KB limit
	long := strings.Repeat("x", 200*1024)

	var buf bytes.Buffer
	var lines []string
	scanInto(strings.NewReader(long+"\nshort\n"), &buf, func(line string) {
		lines = append(lines, line)
	})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != len(long) {
		t.Errorf("expected long line to survive intact, got %d bytes", len(lines[0]))
	}
	if lines[1] != "short" {
		t.Errorf("expected second line 'short', got %q", lines[1])
	}
}
