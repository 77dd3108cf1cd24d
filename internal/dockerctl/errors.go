package dockerctl

import (
	"fmt"
	"strings"
)

// CommandError represents a failure during a docker command.
// This occurs when the docker binary itself fails (non-zero exit code,
// missing binary, signalled process).
type CommandError struct {
	// Op is the docker subcommand that failed (build, run, stop, ...)
	Op string
	// Args is the full argument list passed to docker
	Args []string
	// ExitCode is the docker process exit code (-1 when it never ran)
	ExitCode int
	// Stderr is the docker stderr output
	Stderr string
	// Stdout is the docker stdout output (for context)
	Stdout string
	// Underlying error if any
	Err error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docker %s failed (exit code %d): %v\nstderr: %s",
			e.Op, e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("docker %s failed (exit code %d)\nstderr: %s",
		e.Op, e.ExitCode, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a docker command exceeding its deadline.
type TimeoutError struct {
	// Op is the docker subcommand that timed out
	Op string
	// Timeout is the duration that was exceeded
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("docker %s timed out after %s\n"+
		"Hint: Check that the Docker daemon is responsive (docker info) or increase the timeout",
		e.Op, e.Timeout)
}

// BusyError represents a lifecycle operation rejected because another
// one is still in flight. Stop is exempt so a runaway operation can
// always be interrupted.
type BusyError struct {
	// Running is the operation currently in flight
	Running string
	// Requested is the operation that was rejected
	Requested string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot %s: a %s operation is already in progress\n"+
		"Hint: Wait for it to finish. Stop remains available if you need to interrupt it.",
		e.Requested, e.Running)
}

// DaemonError represents an unreachable Docker daemon.
type DaemonError struct {
	// Details carries the docker error output, usually the socket path
	Details string
	// Underlying error
	Err error
}

func (e *DaemonError) Error() string {
	msg := "Docker daemon is not reachable"
	if d := strings.TrimSpace(e.Details); d != "" {
		msg += ": " + d
	}
	return msg + "\n" +
		"Hint: Start it with: sudo systemctl start docker\n" +
		"If Docker is not installed, run: frigatemx-launcher install docker"
}

func (e *DaemonError) Unwrap() error {
	return e.Err
}

// MissingCheckoutError represents an absent Frigate source checkout,
// needed as the image build context and the config volume root.
type MissingCheckoutError struct {
	// Dir is the expected checkout directory
	Dir string
}

func (e *MissingCheckoutError) Error() string {
	return fmt.Sprintf("frigate checkout not found at %s\n"+
		"Hint: Run: frigatemx-launcher setup", e.Dir)
}
