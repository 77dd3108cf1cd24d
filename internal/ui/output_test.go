package ui

import (
	"strings"
	"testing"
)

func TestCommandOutputTailTruncation(t *testing.T) {
	transcript := "line 1\nline 2\nline 3\nline 4\nline 5\n"
	box := NewCommandOutput(transcript).SetMaxLines(2).SetWidth(80)

	out := box.Render()
	if !strings.Contains(out, "earlier output omitted") {
		t.Error("truncation marker missing")
	}
	if !strings.Contains(out, "line 5") || !strings.Contains(out, "line 4") {
		t.Error("the transcript tail should be kept")
	}
	if strings.Contains(out, "line 1") {
		t.Error("truncated head still present")
	}
}

func TestCommandOutputTitle(t *testing.T) {
	box := NewCommandOutput("hello").SetTitle("Docker Build Output").SetWidth(80)
	if !strings.Contains(box.Render(), "Docker Build Output") {
		t.Error("custom title missing")
	}
}
