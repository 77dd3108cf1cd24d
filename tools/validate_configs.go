//go:build ignore

// Validate a corpus of Frigate config files against the production
// loader: strict parse, recovery fallback, then structural validation.
//
//	go run tools/validate_configs.go <file-or-directory> [...]
//
// Directories are walked recursively for .yaml and .yml files. The
// exit code is 1 when at least one file failed to load cleanly, so the
// tool can gate a corpus refresh in CI.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arlott/frigatemx/internal/frigateconf"
)

type outcome int

const (
	outcomeClean outcome = iota
	outcomeRecovered
	outcomeInvalid
	outcomeUnreadable
)

type finding struct {
	file    string
	outcome outcome
	detail  string
	cameras int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: validate_configs <file-or-directory> [...]")
		os.Exit(2)
	}

	var files []string
	for _, arg := range os.Args[1:] {
		found, err := collectConfigs(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			os.Exit(2)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no .yaml or .yml files found")
		os.Exit(2)
	}
	sort.Strings(files)

	findings := make([]finding, 0, len(files))
	for _, file := range files {
		f := loadOne(file)
		findings = append(findings, f)
		fmt.Println(describe(f))
	}
	summarize(findings)
}

func collectConfigs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch filepath.Ext(p) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// loadOne classifies a single file. Precedence when several things are
// wrong at once: unreadable beats invalid beats recovered.
func loadOne(file string) finding {
	f := finding{file: file}

	doc, report, err := frigateconf.NewStore(file).Load()
	if err != nil {
		f.outcome = outcomeUnreadable
		f.detail = err.Error()
		return f
	}
	f.cameras = doc.Cameras().Len()

	if problems := frigateconf.ValidateDocument(doc); len(problems) > 0 {
		f.outcome = outcomeInvalid
		f.detail = frigateconf.FormatValidationErrors(problems)
		return f
	}
	if report.HasFindings() {
		f.outcome = outcomeRecovered
		f.detail = report.Summary()
	}
	return f
}

func describe(f finding) string {
	switch f.outcome {
	case outcomeUnreadable:
		return fmt.Sprintf("✗ %s: unreadable (%s)", f.file, headline(f.detail))
	case outcomeInvalid:
		return fmt.Sprintf("✗ %s: %s", f.file, headline(f.detail))
	case outcomeRecovered:
		return fmt.Sprintf("~ %s: loaded through recovery, %d camera(s)", f.file, f.cameras)
	default:
		return fmt.Sprintf("✓ %s: valid, %d camera(s)", f.file, f.cameras)
	}
}

func summarize(findings []finding) {
	counts := map[outcome]int{}
	for _, f := range findings {
		counts[f.outcome]++
	}

	fmt.Printf("\n%d file(s): %d clean, %d recovered, %d invalid, %d unreadable\n",
		len(findings), counts[outcomeClean], counts[outcomeRecovered],
		counts[outcomeInvalid], counts[outcomeUnreadable])

	const maxDetails = 10
	shown := 0
	for _, f := range findings {
		if f.outcome == outcomeClean || f.detail == "" {
			continue
		}
		if shown == maxDetails {
			fmt.Println("(further details omitted)")
			break
		}
		shown++
		fmt.Printf("\n%s\n%s\n", f.file, indent(clip(f.detail, 400)))
	}

	if counts[outcomeInvalid]+counts[outcomeUnreadable] > 0 {
		os.Exit(1)
	}
}

func headline(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
