package discovery

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of discovery error that occurred
type ErrorType int

const (
	// ErrTypeSocket indicates the UDP socket could not be opened
	ErrTypeSocket ErrorType = iota
	// ErrTypeSend indicates the probe datagram could not be sent
	ErrTypeSend
	// ErrTypeBusy indicates a scan was requested while one is running
	ErrTypeBusy
	// ErrTypeShutdown indicates sessions did not stop within the grace period
	ErrTypeShutdown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeSocket:
		return "Socket Error"
	case ErrTypeSend:
		return "Send Error"
	case ErrTypeBusy:
		return "Scan In Progress"
	case ErrTypeShutdown:
		return "Shutdown Timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DiscoveryError represents an error from the discovery transport or the
// session registry. Per-camera identification failures are never errors;
// those cameras are reported as Unknown instead.
type DiscoveryError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewSocketError creates a socket setup error
func NewSocketError(message string, err error) *DiscoveryError {
	return &DiscoveryError{
		Type:    ErrTypeSocket,
		Message: message,
		Err:     err,
	}
}

// NewSendError creates a probe send error
func NewSendError(err error) *DiscoveryError {
	return &DiscoveryError{
		Type:    ErrTypeSend,
		Message: "failed to send discovery probe",
		Err:     err,
	}
}

// NewBusyError creates a concurrency conflict error naming the running scan
func NewBusyError(startedAt time.Time) *DiscoveryError {
	return &DiscoveryError{
		Type:    ErrTypeBusy,
		Message: fmt.Sprintf("a discovery scan has been running since %s", startedAt.Format("15:04:05")),
	}
}

// NewShutdownError creates an error listing sessions that outlived the grace period
func NewShutdownError(abandoned []string) *DiscoveryError {
	return &DiscoveryError{
		Type:    ErrTypeShutdown,
		Message: fmt.Sprintf("abandoned %d discovery session(s) still running: %s", len(abandoned), strings.Join(abandoned, ", ")),
	}
}

// IsBusy checks if an error is a concurrency conflict
func IsBusy(err error) bool {
	if discErr, ok := err.(*DiscoveryError); ok {
		return discErr.Type == ErrTypeBusy
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	discErr, ok := err.(*DiscoveryError)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch discErr.Type {
	case ErrTypeSocket, ErrTypeSend:
		return strings.Join([]string{
			"The discovery probe could not be sent.",
			"Troubleshooting:",
			"  • Check that your network interface is up",
			"  • Verify the firewall allows outbound UDP to port 3702",
			"  • Multicast must be enabled on the local network segment",
			"  • VPN connections often block multicast; try disconnecting",
		}, "\n")

	case ErrTypeBusy:
		return strings.Join([]string{
			"Another scan is still collecting responses.",
			"Troubleshooting:",
			"  • Wait for the running scan to finish (a few seconds)",
			"  • Or stop it before starting a new one",
		}, "\n")

	case ErrTypeShutdown:
		return "A discovery session did not stop in time and was abandoned. It will exit on its own."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
