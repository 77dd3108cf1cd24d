package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// writeMockBinary writes an executable shell script standing in for a
// system command.
func writeMockBinary(t *testing.T, path, body string) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write mock binary: %v", err)
	}
}

// testEnv bundles an Installer wired to mock system binaries and the
// log file their invocations append to.
type testEnv struct {
	in      *Installer
	dir     string
	argsLog string
}

// mock overwrites one of the mock binaries with a new body. The body
// should keep logging to the args log when call order matters.
func (e *testEnv) mock(t *testing.T, name, body string) {
	t.Helper()
	writeMockBinary(t, filepath.Join(e.dir, name), body)
}

// logLine is the standard mock preamble: one log line per invocation,
// prefixed with the binary name.
func (e *testEnv) logLine() string {
	return fmt.Sprintf(`echo "${0##*/} $@" >> %q`, e.argsLog)
}

// commands returns the logged invocations in order.
func (e *testEnv) commands(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.argsLog)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read args log: %v", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// sudoCommands returns only the privileged invocations, with the sudo
// prefix stripped.
func (e *testEnv) sudoCommands(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, line := range e.commands(t) {
		if rest, ok := strings.CutPrefix(line, "sudo "); ok {
			out = append(out, rest)
		}
	}
	return out
}

// newTestEnv creates mock sudo, dpkg, dpkg-query, systemctl, uname,
// git and docker binaries that log their arguments, plus an os-release
// fixture for a noble host. Tests overwrite individual mocks when they
// need different behavior.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		argsLog: filepath.Join(dir, "args.log"),
	}

	env.mock(t, "sudo", env.logLine())
	env.mock(t, "git", env.logLine())
	env.mock(t, "uname", env.logLine()+"\necho 6.8.0-45-generic")
	env.mock(t, "systemctl", env.logLine()+"\necho active")
	env.mock(t, "dpkg", env.logLine()+`
if [ "$1" = "--print-architecture" ]; then echo amd64; fi`)
	env.mock(t, "dpkg-query", env.logLine()+`
case "$2" in
  '-f=${Version}') echo "2.1.0-7" ;;
  '-f=${Status}') echo "install ok installed" ;;
esac`)
	env.mock(t, "docker", env.logLine()+`
case "$1" in
  --version) echo "Docker version 27.0.3, build abcdef0" ;;
  info) echo "27.0.3" ;;
esac`)

	osRelease := filepath.Join(dir, "os-release")
	if err := os.WriteFile(osRelease, []byte("PRETTY_NAME=\"Ubuntu 24.04\"\nVERSION_CODENAME=noble\n"), 0o644); err != nil {
		t.Fatalf("failed to write os-release fixture: %v", err)
	}

	deviceDir := filepath.Join(dir, "dev")
	if err := os.Mkdir(deviceDir, 0o755); err != nil {
		t.Fatalf("failed to create device dir: %v", err)
	}

	cfg := Config{
		SudoPath:        filepath.Join(dir, "sudo"),
		DockerPath:      filepath.Join(dir, "docker"),
		GitPath:         filepath.Join(dir, "git"),
		DpkgPath:        filepath.Join(dir, "dpkg"),
		DpkgQueryPath:   filepath.Join(dir, "dpkg-query"),
		SystemctlPath:   filepath.Join(dir, "systemctl"),
		UnamePath:       filepath.Join(dir, "uname"),
		CheckoutDir:     filepath.Join(dir, "frigate"),
		OSReleasePath:   osRelease,
		DeviceDir:       deviceDir,
		DockerGroupUser: "tester",
		Timeout:         10 * time.Second,
	}
	env.in = New(cfg, nil)
	return env
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SudoPath != "sudo" {
		t.Errorf("SudoPath = %q, want sudo", cfg.SudoPath)
	}
	if cfg.DpkgQueryPath != "dpkg-query" {
		t.Errorf("DpkgQueryPath = %q, want dpkg-query", cfg.DpkgQueryPath)
	}
	if cfg.CheckoutDir != "frigate" {
		t.Errorf("CheckoutDir = %q, want frigate", cfg.CheckoutDir)
	}
	if cfg.OSReleasePath != "/etc/os-release" {
		t.Errorf("OSReleasePath = %q, want /etc/os-release", cfg.OSReleasePath)
	}
	if cfg.DeviceDir != "/dev" {
		t.Errorf("DeviceDir = %q, want /dev", cfg.DeviceDir)
	}
	if cfg.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", cfg.Timeout)
	}
}

func TestNewNilLogger(t *testing.T) {
	in := New(DefaultConfig(), nil)
	if in.logger == nil {
		t.Fatal("nil logger was not replaced")
	}
}

func TestSudoPasswordOnStdin(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", `read -r pw
echo "pw=$pw" >> `+env.argsLog+`
echo "sudo $@" >> `+env.argsLog)

	env.in.SetSudoPassword([]byte("hunter2"))
	if _, err := env.in.sudo(context.Background(), nil, "apt-get", "update"); err != nil {
		t.Fatalf("sudo failed: %v", err)
	}

	commands := env.commands(t)
	if len(commands) != 2 {
		t.Fatalf("logged %d lines, want 2: %v", len(commands), commands)
	}
	if commands[0] != "pw=hunter2" {
		t.Errorf("password line = %q, want pw=hunter2", commands[0])
	}
	if commands[1] != "sudo -S apt-get update" {
		t.Errorf("command line = %q, want sudo -S apt-get update", commands[1])
	}
}

func TestSudoWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.in.sudo(context.Background(), nil, "apt-get", "update"); err != nil {
		t.Fatalf("sudo failed: %v", err)
	}

	commands := env.commands(t)
	if len(commands) != 1 || commands[0] != "sudo apt-get update" {
		t.Fatalf("commands = %v, want [sudo apt-get update]", commands)
	}
}

func TestClearSudoPassword(t *testing.T) {
	env := newTestEnv(t)
	env.in.SetSudoPassword([]byte("hunter2"))
	env.in.ClearSudoPassword()

	if _, err := env.in.sudo(context.Background(), nil, "true"); err != nil {
		t.Fatalf("sudo failed: %v", err)
	}
	if got := env.commands(t)[0]; got != "sudo true" {
		t.Errorf("command = %q, -S should be gone after clear", got)
	}
}

func TestStepAnnouncesAndWrapsFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
echo "E: unable to lock" >&2
exit 100`)

	var lines []string
	err := env.in.step(context.Background(), func(line string) {
		lines = append(lines, line)
	}, "update package lists", "apt-get", "update")

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want StepError", err)
	}
	if stepErr.Step != "update package lists" {
		t.Errorf("Step = %q", stepErr.Step)
	}
	if !strings.Contains(stepErr.Stderr, "unable to lock") {
		t.Errorf("Stderr = %q, want apt message", stepErr.Stderr)
	}
	if len(lines) == 0 || lines[0] != "==> update package lists" {
		t.Errorf("progress lines = %v, want step announcement first", lines)
	}
}

func TestStepOptionalContinues(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+"\nexit 1")

	var lines []string
	err := env.in.stepOptional(context.Background(), func(line string) {
		lines = append(lines, line)
	}, "remove old files", "rm", "-f", "/nope")
	if err != nil {
		t.Fatalf("stepOptional returned %v, want nil", err)
	}

	found := false
	for _, line := range lines {
		if strings.Contains(line, "ignored") {
			found = true
		}
	}
	if !found {
		t.Errorf("progress lines = %v, want an ignored notice", lines)
	}
}

func TestStepOptionalAbortsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := env.in.stepOptional(ctx, nil, "stop docker", "systemctl", "stop", "docker"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestWriteRootFile(t *testing.T) {
	env := newTestEnv(t)
	captured := filepath.Join(env.dir, "captured")
	env.mock(t, "sudo", env.logLine()+`
if [ "$1" = "mv" ]; then cat "$2" > `+captured+`; fi`)

	err := env.in.writeRootFile(context.Background(), nil, "add apt source",
		"/etc/apt/sources.list.d/test.list", "deb https://example.org stable main\n")
	if err != nil {
		t.Fatalf("writeRootFile failed: %v", err)
	}

	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("mock never saw the staged file: %v", err)
	}
	if string(data) != "deb https://example.org stable main\n" {
		t.Errorf("staged content = %q", data)
	}

	commands := env.commands(t)
	if len(commands) != 1 {
		t.Fatalf("commands = %v, want a single mv", commands)
	}
	if !strings.HasPrefix(commands[0], "sudo mv ") ||
		!strings.HasSuffix(commands[0], " /etc/apt/sources.list.d/test.list") {
		t.Errorf("command = %q, want sudo mv <tmp> <target>", commands[0])
	}
}

func TestBeginRejectsConcurrentFlow(t *testing.T) {
	in := New(DefaultConfig(), nil)

	release, err := in.begin("docker install")
	if err != nil {
		t.Fatalf("begin on idle installer failed: %v", err)
	}
	if got := in.CurrentOperation(); got != "docker install" {
		t.Errorf("CurrentOperation = %q", got)
	}

	_, err = in.begin("memryx install")
	var busy *BusyError
	if !errors.As(err, &busy) {
		t.Fatalf("second begin error = %v, want BusyError", err)
	}
	if busy.Running != "docker install" || busy.Requested != "memryx install" {
		t.Errorf("BusyError = %+v", busy)
	}

	release()
	if got := in.CurrentOperation(); got != "" {
		t.Errorf("CurrentOperation after release = %q, want empty", got)
	}
}

func TestBeginReleaseIdempotent(t *testing.T) {
	in := New(DefaultConfig(), nil)

	release, err := in.begin("docker install")
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()

	// A stale release must not clear a newer claim.
	release2, err := in.begin("memryx install")
	if err != nil {
		t.Fatalf("begin after release failed: %v", err)
	}
	release()
	if got := in.CurrentOperation(); got != "memryx install" {
		t.Errorf("stale release cleared the gate, CurrentOperation = %q", got)
	}
	release2()
}

func TestRunTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", "exec sleep 10")
	env.in.config.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := env.in.sudo(context.Background(), nil, "apt-get", "update")
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("took %v, SIGTERM should have ended it quickly", elapsed)
	}
}

func TestRunStreamsLines(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", `echo "Reading package lists..."
echo "W: something odd" >&2
echo "Done"`)

	var mu sync.Mutex
	var lines []string
	result, err := env.in.sudo(context.Background(), func(line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	}, "apt-get", "update")
	if err != nil {
		t.Fatalf("sudo failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 3 {
		t.Fatalf("streamed %d lines, want 3: %v", len(lines), lines)
	}
	if !strings.Contains(result.stdout, "Done") {
		t.Errorf("stdout = %q, should still be captured", result.stdout)
	}
	if !strings.Contains(result.stderr, "something odd") {
		t.Errorf("stderr = %q, should still be captured", result.stderr)
	}
}
