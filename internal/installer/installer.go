package installer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

// killGrace is how long a command gets to exit after SIGTERM before it
// is killed outright.
const killGrace = 5 * time.Second

// LineFunc receives one line of command output as it is produced.
// Callbacks must be fast; they run on the output reader goroutines.
type LineFunc func(line string)

// Config holds the external command paths and system locations the
// installer touches. Everything is overridable so tests can substitute
// mock executables and fixture files.
type Config struct {
	// SudoPath is the privilege escalation command. Every command that
	// changes system state runs through it.
	SudoPath string
	// DockerPath is the docker binary, used only for presence and
	// daemon checks. Container lifecycle lives elsewhere.
	DockerPath string
	// GitPath is the git binary used to manage the frigate checkout.
	GitPath string
	// DpkgPath is the dpkg binary, used for --print-architecture and
	// the dpkg -l version fallback.
	DpkgPath string
	// DpkgQueryPath is the dpkg-query binary for package version and
	// install state lookups.
	DpkgQueryPath string
	// SystemctlPath is the systemctl binary for service state queries.
	// Service mutations run through sudo instead.
	SystemctlPath string
	// UnamePath is the uname binary, used to pick the linux-headers
	// package matching the running kernel.
	UnamePath string
	// CheckoutDir is where the frigate source tree is cloned.
	CheckoutDir string
	// OSReleasePath is the os-release file used to resolve the Ubuntu
	// codename for apt source lines.
	OSReleasePath string
	// DeviceDir is the directory scanned for MemryX device nodes.
	DeviceDir string
	// DockerGroupUser is added to the docker group after an engine
	// install. Empty skips the group setup.
	DockerGroupUser string
	// Timeout bounds each individual command, not a whole flow.
	Timeout time.Duration
}

// DefaultConfig returns the standard system paths and a timeout wide
// enough for package installs on slow connections.
func DefaultConfig() Config {
	cfg := Config{
		SudoPath:      "sudo",
		DockerPath:    "docker",
		GitPath:       "git",
		DpkgPath:      "dpkg",
		DpkgQueryPath: "dpkg-query",
		SystemctlPath: "systemctl",
		UnamePath:     "uname",
		CheckoutDir:   "frigate",
		OSReleasePath: "/etc/os-release",
		DeviceDir:     "/dev",
		Timeout:       30 * time.Minute,
	}
	if u, err := user.Current(); err == nil && u.Username != "root" {
		cfg.DockerGroupUser = u.Username
	}
	return cfg
}

// Installer runs the host provisioning flows: Docker Engine install,
// MemryX driver install, frigate checkout management, and docker
// daemon recovery. One flow runs at a time; a second request while a
// flow is in progress returns a BusyError.
type Installer struct {
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	current  string
	password []byte
}

// New creates an Installer. A nil logger disables logging.
func New(config Config, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{
		config: config,
		logger: logger,
	}
}

// SetSudoPassword stores the password handed to sudo on stdin. It is
// held in memory only and never written to disk or logs; call
// ClearSudoPassword once the privileged flows are done.
func (in *Installer) SetSudoPassword(password []byte) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.zeroPassword()
	in.password = make([]byte, len(password))
	copy(in.password, password)
}

// ClearSudoPassword wipes the stored password.
func (in *Installer) ClearSudoPassword() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.zeroPassword()
}

func (in *Installer) zeroPassword() {
	for i := range in.password {
		in.password[i] = 0
	}
	in.password = nil
}

// sudoStdin renders the stored password for sudo -S, or "" when no
// password is set.
func (in *Installer) sudoStdin() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.password) == 0 {
		return ""
	}
	return string(in.password) + "\n"
}

// CurrentOperation reports the flow in progress, or "" when idle.
func (in *Installer) CurrentOperation() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// begin claims the single flow slot. The returned release is safe to
// call more than once; a stale release cannot clear a newer claim.
func (in *Installer) begin(op string) (func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.current != "" {
		return nil, &BusyError{Running: in.current, Requested: op}
	}
	in.current = op

	var once sync.Once
	release := func() {
		once.Do(func() {
			in.mu.Lock()
			in.current = ""
			in.mu.Unlock()
		})
	}
	return release, nil
}

// commandResult captures one command execution.
type commandResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// run executes one command, streaming output line by line when onLine
// is set. On timeout or cancellation the command receives SIGTERM,
// escalating to SIGKILL after killGrace.
func (in *Installer) run(ctx context.Context, stdin string, onLine LineFunc, name string, args ...string) (*commandResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, in.config.Timeout)
	defer cancel()

	logging.LogCommandStart(name, args)
	start := time.Now()

	cmd := exec.CommandContext(timeoutCtx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	var runErr error
	if onLine != nil {
		runErr = in.runStreaming(cmd, &stdout, &stderr, onLine)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		runErr = cmd.Run()
	}

	result := &commandResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: exitCodeOf(runErr),
	}
	logging.LogCommandDone(name, result.exitCode, time.Since(start))

	if timeoutCtx.Err() == context.DeadlineExceeded {
		return result, fmt.Errorf("timed out after %s: %w", in.config.Timeout, context.DeadlineExceeded)
	}
	return result, runErr
}

// runStreaming wires both pipes into line scanners so progress shows
// up as it happens. Output still lands in the buffers for error
// reporting.
func (in *Installer) runStreaming(cmd *exec.Cmd, stdout, stderr *bytes.Buffer, onLine LineFunc) error {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var emitMu sync.Mutex
	emitLine := func(line string) {
		emitMu.Lock()
		defer emitMu.Unlock()
		onLine(line)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdoutPipe, stdout, emitLine)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, stderr, emitLine)
	}()
	wg.Wait()

	return cmd.Wait()
}

// scanLines copies rd into buf line by line, emitting each line as it
// arrives. The scanner buffer is grown to take apt's long status
// lines.
func scanLines(rd io.Reader, buf *bytes.Buffer, emit func(string)) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		emit(line)
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// sudo runs argv through the privilege escalation command. With a
// stored password the -S flag makes sudo read it from stdin; without
// one sudo must already be authorized (a NOPASSWD rule or a cached
// ticket).
func (in *Installer) sudo(ctx context.Context, onLine LineFunc, argv ...string) (*commandResult, error) {
	stdin := in.sudoStdin()
	args := make([]string, 0, len(argv)+1)
	if stdin != "" {
		args = append(args, "-S")
	}
	args = append(args, argv...)
	return in.run(ctx, stdin, onLine, in.config.SudoPath, args...)
}

// step runs one privileged flow step, announcing it on the progress
// stream and wrapping failures so the user sees which step broke.
func (in *Installer) step(ctx context.Context, onLine LineFunc, name string, argv ...string) error {
	emit(onLine, "==> "+name)
	result, err := in.sudo(ctx, onLine, argv...)
	if err != nil {
		return &StepError{Step: name, Stderr: resultStderr(result), Err: err}
	}
	return nil
}

// stepOptional is step for commands that are allowed to fail, like
// removing repository files that may not exist or unholding packages
// that were never held. Context errors still abort the flow.
func (in *Installer) stepOptional(ctx context.Context, onLine LineFunc, name string, argv ...string) error {
	err := in.step(ctx, onLine, name, argv...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	emit(onLine, "    (ignored: "+name+" failed)")
	in.logger.Debug("optional install step failed",
		zap.String("step", name),
		zap.Error(err))
	return nil
}

// writeRootFile writes content to a root-owned path by staging it in a
// temp file and moving it into place with sudo.
func (in *Installer) writeRootFile(ctx context.Context, onLine LineFunc, stepName, path, content string) error {
	tmp, err := os.CreateTemp("", "frigatemx-*.tmp")
	if err != nil {
		return &StepError{Step: stepName, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return &StepError{Step: stepName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StepError{Step: stepName, Err: err}
	}
	// Temp files are created 0600; widen before the move so apt can
	// read the result.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &StepError{Step: stepName, Err: err}
	}
	return in.step(ctx, onLine, stepName, "mv", tmpPath, path)
}

func emit(onLine LineFunc, line string) {
	if onLine != nil {
		onLine(line)
	}
}

func resultStderr(result *commandResult) string {
	if result == nil {
		return ""
	}
	return result.stderr
}
