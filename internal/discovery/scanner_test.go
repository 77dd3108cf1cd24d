package discovery

import (
	"testing"
	"time"
)

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Window != DefaultScanWindow {
		t.Errorf("Scanner.Window = %v, want %v", scanner.Window, DefaultScanWindow)
	}
	if scanner.SkipEnrichment {
		t.Error("Scanner.SkipEnrichment = true, want enrichment enabled by default")
	}
	if scanner.logger == nil {
		t.Error("Scanner.logger is nil")
	}
}

func TestScanner_WindowDefault(t *testing.T) {
	tests := []struct {
		name     string
		window   time.Duration
		expected time.Duration
	}{
		{
			name:     "zero falls back to default",
			window:   0,
			expected: DefaultScanWindow,
		},
		{
			name:     "negative falls back to default",
			window:   -time.Second,
			expected: DefaultScanWindow,
		},
		{
			name:     "explicit window kept",
			window:   10 * time.Second,
			expected: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &Scanner{Window: tt.window}
			if got := scanner.window(); got != tt.expected {
				t.Errorf("window() = %v, want %v", got, tt.expected)
			}
		})
	}
}
