package frigateconf

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrorType represents the category of a configuration error.
type ErrorType int

const (
	// ErrTypeRead indicates the config file could not be read.
	ErrTypeRead ErrorType = iota
	// ErrTypeNotFound indicates the config file does not exist yet.
	ErrTypeNotFound
	// ErrTypePermission indicates the config file is not accessible.
	ErrTypePermission
	// ErrTypeParse indicates the file is not valid YAML.
	ErrTypeParse
	// ErrTypeValidation indicates a camera or section failed validation.
	ErrTypeValidation
	// ErrTypeSave indicates the file could not be written.
	ErrTypeSave
	// ErrTypeVerify indicates the saved file did not read back as written.
	ErrTypeVerify
)

// String returns a human-readable name for the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrTypeRead:
		return "Read Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypePermission:
		return "Permission Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeSave:
		return "Save Error"
	case ErrTypeVerify:
		return "Verify Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ConfigError represents an error while loading, validating or saving a
// Frigate configuration file.
type ConfigError struct {
	Type    ErrorType // Category of error
	Path    string    // Config file path (if applicable)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewReadError classifies a file read failure.
func NewReadError(path string, err error) *ConfigError {
	switch {
	case os.IsNotExist(err):
		return &ConfigError{
			Type:    ErrTypeNotFound,
			Path:    path,
			Message: "configuration file not found",
			Err:     err,
		}
	case os.IsPermission(err):
		return &ConfigError{
			Type:    ErrTypePermission,
			Path:    path,
			Message: "permission denied reading configuration file",
			Err:     err,
		}
	default:
		return &ConfigError{
			Type:    ErrTypeRead,
			Path:    path,
			Message: "could not read configuration file",
			Err:     err,
		}
	}
}

// NewParseError creates a YAML parsing error.
func NewParseError(path string, message string, err error) *ConfigError {
	return &ConfigError{Type: ErrTypeParse, Path: path, Message: message, Err: err}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *ConfigError {
	return &ConfigError{Type: ErrTypeValidation, Message: message}
}

// NewSaveError creates a write failure error.
func NewSaveError(path string, message string, err error) *ConfigError {
	return &ConfigError{Type: ErrTypeSave, Path: path, Message: message, Err: err}
}

// NewVerifyError creates a post-save verification error.
func NewVerifyError(path string, message string) *ConfigError {
	return &ConfigError{Type: ErrTypeVerify, Path: path, Message: message}
}

// IsNotFound checks whether an error means the config file is missing.
func IsNotFound(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Type == ErrTypeNotFound
	}
	return false
}

// IsParseError checks if an error is a YAML parse error.
func IsParseError(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Type == ErrTypeParse
	}
	return false
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Type == ErrTypeValidation
	}
	return false
}

// validationMessage extracts the bare message of a validation error for
// report notes; other errors render with their full text.
func validationMessage(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Message
	}
	return err.Error()
}

// GetTroubleshootingHint returns user-facing advice for a config error.
func GetTroubleshootingHint(err error) string {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch cfgErr.Type {
	case ErrTypeNotFound:
		return strings.Join([]string{
			"No Frigate configuration exists yet.",
			"Troubleshooting:",
			"  • Run the setup flow to clone Frigate and create the initial config",
			"  • Check the configured Frigate directory in the tool settings",
		}, "\n")

	case ErrTypePermission:
		return strings.Join([]string{
			"The configuration file is not accessible.",
			"Troubleshooting:",
			"  • The Frigate container may have re-owned the config directory",
			"  • Check ownership and mode of the config/ directory",
			"  • Try: sudo chown -R $USER " + cfgErr.Path,
		}, "\n")

	case ErrTypeParse:
		return strings.Join([]string{
			"The configuration file is not valid YAML.",
			"Best-effort recovery ran; review the recovery notes before saving.",
			"Troubleshooting:",
			"  • Inspect the file for indentation damage",
			"  • A .bak of the previous save may hold an intact copy",
		}, "\n")

	case ErrTypeSave:
		return strings.Join([]string{
			"The configuration could not be written.",
			"The previous file was left untouched.",
			"Troubleshooting:",
			"  • Check free disk space and directory permissions",
			"  • Verify the config directory exists and is writable",
		}, "\n")

	case ErrTypeVerify:
		return strings.Join([]string{
			"The saved file did not read back as written.",
			"Troubleshooting:",
			"  • Another process may be writing the file at the same time",
			"  • Compare against the .bak copy of the previous configuration",
		}, "\n")

	case ErrTypeValidation:
		return "The configuration values are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
