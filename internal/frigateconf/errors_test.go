package frigateconf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestConfigErrorFormat tests error message rendering
func TestConfigErrorFormat(t *testing.T) {
	plain := NewValidationError("camera name is required")
	if got := plain.Error(); got != "Validation Error: camera name is required" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := NewSaveError("/opt/frigate/config/config.yaml", "could not write backup", os.ErrPermission)
	got := wrapped.Error()
	for _, want := range []string{"Save Error", "/opt/frigate/config/config.yaml", "caused by", "permission denied"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

// TestConfigErrorUnwrap tests error chain inspection
func TestConfigErrorUnwrap(t *testing.T) {
	inner := os.ErrNotExist
	err := NewReadError("/tmp/cfg.yaml", inner)
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is() lost the wrapped error")
	}
	wrapped := fmt.Errorf("loading config: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() does not see through wrapping")
	}
}

// TestNewReadErrorClassification tests os error mapping
func TestNewReadErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"missing file", os.ErrNotExist, ErrTypeNotFound},
		{"permission", os.ErrPermission, ErrTypePermission},
		{"other", errors.New("disk on fire"), ErrTypeRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewReadError("/x", tt.err)
			if got.Type != tt.want {
				t.Errorf("NewReadError() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}

// TestErrorTypePredicates tests the Is helpers
func TestErrorTypePredicates(t *testing.T) {
	if !IsValidationError(NewValidationError("x")) {
		t.Error("IsValidationError() = false")
	}
	if IsValidationError(NewParseError("", "x", nil)) {
		t.Error("IsValidationError() = true for parse error")
	}
	if !IsParseError(NewParseError("", "bad yaml", nil)) {
		t.Error("IsParseError() = false")
	}
	if IsNotFound(errors.New("unrelated")) {
		t.Error("IsNotFound() = true for a foreign error")
	}
}

// TestValidationMessage tests note extraction
func TestValidationMessage(t *testing.T) {
	if got := validationMessage(NewValidationError("stream path is empty")); got != "stream path is empty" {
		t.Errorf("validationMessage() = %q", got)
	}
	if got := validationMessage(errors.New("raw")); got != "raw" {
		t.Errorf("validationMessage() = %q", got)
	}
}

// TestGetTroubleshootingHint tests hint selection per error type
func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NewReadError("/x", os.ErrNotExist), "setup"},
		{"permission", NewReadError("/x", os.ErrPermission), "chown"},
		{"parse", NewParseError("/x", "bad", nil), ".bak"},
		{"save", NewSaveError("/x", "bad", nil), "disk space"},
		{"verify", NewVerifyError("/x", "drift"), "Another process"},
		{"validation", NewValidationError("bad"), "invalid"},
		{"foreign", errors.New("nope"), "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := GetTroubleshootingHint(tt.err)
			if !strings.Contains(hint, tt.want) {
				t.Errorf("hint %q does not mention %q", hint, tt.want)
			}
		})
	}
}

// TestErrorTypeString tests type names
func TestErrorTypeString(t *testing.T) {
	pairs := map[ErrorType]string{
		ErrTypeRead:       "Read Error",
		ErrTypeNotFound:   "Not Found",
		ErrTypePermission: "Permission Error",
		ErrTypeParse:      "Parse Error",
		ErrTypeValidation: "Validation Error",
		ErrTypeSave:       "Save Error",
		ErrTypeVerify:     "Verify Error",
	}
	for et, want := range pairs {
		if got := et.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", et, got, want)
		}
	}
	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("unknown type String() = %q", got)
	}
}
