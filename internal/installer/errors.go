package installer

import (
	"fmt"
	"strings"
)

// StepError reports which provisioning step failed, carrying the
// command's stderr for diagnosis.
type StepError struct {
	// Step is the human-readable step name shown in progress output.
	Step string
	// Stderr is the failing command's captured stderr.
	Stderr string
	// Err is the underlying execution error.
	Err error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// BusyError is returned when a provisioning flow is requested while
// another one is still running.
type BusyError struct {
	// Running is the flow currently in progress.
	Running string
	// Requested is the flow that was rejected.
	Requested string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot start %s: %s is already running\n"+
		"Hint: Provisioning flows change system state and cannot overlap. Wait for the current one to finish.",
		e.Requested, e.Running)
}

// InstallError wraps a whole flow failure with a pointer to the
// relevant manual installation guide.
type InstallError struct {
	// Flow names the provisioning flow that failed.
	Flow string
	// Doc is a documentation URL for doing the steps by hand.
	Doc string
	// Err is the step failure that aborted the flow.
	Err error
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Flow, e.Err)
	if e.Doc != "" {
		msg += "\nFor manual installation steps, see: " + e.Doc
	}
	return msg
}

func (e *InstallError) Unwrap() error {
	return e.Err
}
