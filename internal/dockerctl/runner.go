package dockerctl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// killGrace is how long a cancelled docker command gets to shut down
// after SIGTERM before it is killed.
const killGrace = 5 * time.Second

// Config holds the configuration for docker execution.
type Config struct {
	// DockerPath is the path to the docker binary.
	// Default: "docker" (searches PATH)
	DockerPath string

	// CheckoutDir is the Frigate source checkout. It is the build
	// context for the image, and its config subdirectory is mounted
	// into the container as /config.
	CheckoutDir string

	// Timeout is the maximum time for a lifecycle command.
	// Default: 30 minutes (image builds are slow)
	Timeout time.Duration

	// QueryTimeout is the maximum time for status and log queries.
	// Default: 10 seconds
	QueryTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults. CheckoutDir
// defaults to "frigate" under the current directory, matching where
// setup places the clone.
func DefaultConfig() Config {
	return Config{
		DockerPath:   "docker",
		CheckoutDir:  "frigate",
		Timeout:      30 * time.Minute,
		QueryTimeout: 10 * time.Second,
	}
}

// LineFunc receives one line of command output as it is produced.
type LineFunc func(line string)

// CommandResult captures the outcome of one docker command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes docker commands via os/exec. Lifecycle operations
// (Build, Run, Start, Restart, Remove, Up, Rebuild) are serialized
// through an OperationGate; Stop bypasses the gate so it can interrupt
// a stuck operation.
type Runner struct {
	config  Config
	logger  *zap.Logger
	gate    OperationGate
	logPoll time.Duration
}

// NewRunner creates a docker runner with the given configuration.
func NewRunner(config Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:  config,
		logger:  logger,
		logPoll: defaultLogPollInterval,
	}
}

// CurrentOperation returns the name of the lifecycle operation in
// flight, or "" when idle.
func (r *Runner) CurrentOperation() string {
	return r.gate.Current()
}

// docker runs one docker command and normalizes failures into a
// CommandError. Timeouts stay reachable through Unwrap as TimeoutError.
func (r *Runner) docker(ctx context.Context, timeout time.Duration, dir string, onLine LineFunc, args ...string) (*CommandResult, error) {
	op := args[0]
	start := time.Now()

	r.logger.Debug("running docker command",
		zap.String("op", op),
		zap.Strings("args", args),
		zap.String("dir", dir),
		zap.Duration("timeout", timeout),
	)

	result, err := r.execute(ctx, timeout, dir, onLine, args...)
	if result == nil {
		result = &CommandResult{ExitCode: -1}
	}
	result.Duration = time.Since(start)

	r.logger.Debug("docker command complete",
		zap.String("op", op),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Int("stdout_size", len(result.Stdout)),
		zap.Int("stderr_size", len(result.Stderr)),
	)

	// Check for execution errors
	if err != nil {
		return result, &CommandError{
			Op:       op,
			Args:     args,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Stdout:   result.Stdout,
			Err:      err,
		}
	}

	// Check for non-zero exit code
	if result.ExitCode != 0 {
		return result, &CommandError{
			Op:       op,
			Args:     args,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Stdout:   result.Stdout,
		}
	}

	return result, nil
}

// execute runs docker with the given arguments. When onLine is non-nil
// the command runs in streaming mode: stdout and stderr are scanned
// line by line and handed to onLine as they arrive, as well as being
// captured. Cancellation sends SIGTERM and escalates to SIGKILL after
// killGrace.
func (r *Runner) execute(ctx context.Context, timeout time.Duration, dir string, onLine LineFunc, args ...string) (*CommandResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, r.config.DockerPath, args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var stdoutBuf, stderrBuf bytes.Buffer
	var err error

	if onLine != nil {
		// Streaming mode: scan both pipes line by line
		stdoutPipe, perr := cmd.StdoutPipe()
		if perr != nil {
			return nil, fmt.Errorf("failed to create stdout pipe: %w", perr)
		}
		stderrPipe, perr := cmd.StderrPipe()
		if perr != nil {
			return nil, fmt.Errorf("failed to create stderr pipe: %w", perr)
		}

		if serr := cmd.Start(); serr != nil {
			return nil, fmt.Errorf("failed to start docker: %w", serr)
		}

		// The callback is shared between both pipe readers
		var emitMu sync.Mutex
		emit := func(line string) {
			emitMu.Lock()
			onLine(line)
			emitMu.Unlock()
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			scanInto(stdoutPipe, &stdoutBuf, emit)
		}()
		go func() {
			defer wg.Done()
			scanInto(stderrPipe, &stderrBuf, emit)
		}()

		// Wait for the pipes to drain before Wait closes them
		wg.Wait()
		err = cmd.Wait()
	} else {
		// Buffered mode: only capture to buffers
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
		err = cmd.Run()
	}

	result := &CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	// Get exit code
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	// Check for timeout
	if timeoutCtx.Err() == context.DeadlineExceeded {
		err = &TimeoutError{
			Op:      args[0],
			Timeout: timeout.String(),
		}
	}

	return result, err
}

// scanInto copies rd line by line into buf, handing each line to emit.
// Docker build output can produce very long lines, hence the bumped
// scanner buffer.
func scanInto(rd io.Reader, buf *bytes.Buffer, emit LineFunc) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		emit(line)
	}
}
