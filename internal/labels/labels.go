// Package labels carries the COCO class list frigate's default model
// detects, for validating objects.track entries before they reach a
// config file.
package labels

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed coco-80.txt
var coco80Raw string

var (
	loadOnce sync.Once
	all      []string
	index    map[string]struct{}
)

// load parses the embedded labelmap once.
func load() {
	loadOnce.Do(func() {
		index = make(map[string]struct{})
		for _, line := range strings.Split(coco80Raw, "\n") {
			label := strings.TrimSpace(line)
			if label == "" {
				continue
			}
			all = append(all, label)
			index[label] = struct{}{}
		}
	})
}

// All returns every label in the order the model emits class IDs.
func All() []string {
	load()
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// Count returns the number of labels in the embedded map.
func Count() int {
	load()
	return len(all)
}

// Has reports whether name is a label the default model can detect.
func Has(name string) bool {
	load()
	_, ok := index[name]
	return ok
}

// Validate checks a tracked-object name against the label list.
// Matching is case-sensitive because frigate's labelmap is.
func Validate(name string) error {
	load()
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("object label is empty")
	}
	if _, ok := index[trimmed]; ok {
		return nil
	}
	if suggestion := closest(trimmed); suggestion != "" {
		return fmt.Errorf("unknown object label %q, did you mean %q?", trimmed, suggestion)
	}
	return fmt.Errorf("unknown object label %q", trimmed)
}

// closest suggests a label for the common near-misses, a case slip or
// the singular/plural trap.
func closest(name string) string {
	lower := strings.ToLower(name)
	for _, label := range all {
		if strings.ToLower(label) == lower {
			return label
		}
	}
	for _, label := range all {
		if lower == label+"s" || lower+"s" == label {
			return label
		}
	}
	return ""
}
