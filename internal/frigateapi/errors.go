package frigateapi

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorType classifies a failed frigate API call.
type ErrorType int

const (
	ErrTypeNetwork ErrorType = iota // transport failure, no HTTP response
	ErrTypeTimeout
	ErrTypeConnectionRefused // nothing listening on the port
	ErrTypeHTTP              // non-200 status
	ErrTypeParse             // response body did not decode
)

var errTypeNames = [...]string{
	ErrTypeNetwork:           "Network Error",
	ErrTypeTimeout:           "Timeout",
	ErrTypeConnectionRefused: "Connection Refused",
	ErrTypeHTTP:              "HTTP Error",
	ErrTypeParse:             "Parse Error",
}

func (et ErrorType) String() string {
	if et >= 0 && int(et) < len(errTypeNames) {
		return errTypeNames[et]
	}
	return fmt.Sprintf("ErrorType(%d)", et)
}

// APIError represents an error talking to a running frigate instance.
type APIError struct {
	Type       ErrorType
	Message    string
	StatusCode int   // set for ErrTypeHTTP
	Err        error // underlying cause, may be nil
	Retryable  bool
}

func (e *APIError) Error() string {
	s := e.Type.String() + ": " + e.Message
	if e.Err != nil {
		s += " (caused by: " + e.Err.Error() + ")"
	}
	return s
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(t ErrorType, message string, err error, retryable bool) *APIError {
	return &APIError{Type: t, Message: message, Err: err, Retryable: retryable}
}

// NewNetworkError wraps a transport failure, narrowing it to a timeout
// or a refused connection when the error chain shows one. Transport
// failures are transient by assumption, so all of them retry.
func NewNetworkError(message string, err error) *APIError {
	t := ErrTypeNetwork
	switch {
	case os.IsTimeout(err):
		t = ErrTypeTimeout
	case isConnRefused(err):
		t = ErrTypeConnectionRefused
	}
	return newAPIError(t, message, err, true)
}

func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED)
}

// NewHTTPError reports a non-200 response. Only 5xx answers retry; a
// 4xx fails the same way every time.
func NewHTTPError(statusCode int, message string) *APIError {
	e := newAPIError(ErrTypeHTTP, message, nil, statusCode >= 500)
	e.StatusCode = statusCode
	return e
}

// NewParseError reports a response body this tool could not decode.
func NewParseError(message string, err error) *APIError {
	return newAPIError(ErrTypeParse, message, err, false)
}

// IsRetryable reports whether repeating the request could succeed.
// Errors from outside this package never retry.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// GetTroubleshootingHint turns an API error into advice a user can act
// on, naming the launcher commands that inspect or revive the
// container.
func GetTroubleshootingHint(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Unexpected error talking to frigate. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeConnectionRefused:
		return hintLines("Nothing is listening on the frigate API port.",
			"Check the container state: frigatemx-launcher status",
			"Start it if needed: frigatemx-launcher start",
			"Frigate takes a minute to come up after a start")

	case ErrTypeTimeout:
		return hintLines("Frigate did not respond in time.",
			"The container may still be starting, check: frigatemx-launcher logs",
			"A host under heavy load answers slowly, try again")

	case ErrTypeHTTP:
		if apiErr.StatusCode >= 500 {
			return hintLines(fmt.Sprintf("Frigate returned an error (HTTP %d).", apiErr.StatusCode),
				"Check the container logs: frigatemx-launcher logs",
				"A broken config file stops the API, validate it: frigatemx-cfg config validate")
		}
		return fmt.Sprintf("Frigate returned HTTP %d. Check the request path and parameters.", apiErr.StatusCode)

	case ErrTypeParse:
		return "Failed to parse frigate's response. The running version may be newer than this tool supports."

	default:
		return hintLines("Could not reach frigate.",
			"Verify the host and port (default localhost:5000)",
			"Check the container state: frigatemx-launcher status")
	}
}

func hintLines(summary string, tips ...string) string {
	lines := []string{summary, "Troubleshooting:"}
	for _, tip := range tips {
		lines = append(lines, "  • "+tip)
	}
	return strings.Join(lines, "\n")
}
