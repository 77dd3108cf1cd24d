//go:build ignore

// Analyze saved WS-Discovery responses with the production parser.
//
//	go run tools/analyze-probes.go <file-or-directory> [...]
//
// Each input file holds one raw ProbeMatch response, saved from
// wireshark or from the scanner's debug log (FRIGATEMX_LOG_LEVEL=debug
// dumps every datagram). The tool reports how the parser classified
// each response and collects the scope URIs of the unidentified ones,
// which are the raw material for extending the vendor table.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/arlott/frigatemx/internal/discovery"
)

// ipInName recovers the camera address from capture names like
// probe-192.168.1.64.xml, so the synthesized RTSP URL shows the real
// host instead of a placeholder.
var ipInName = regexp.MustCompile(`\d{1,3}(?:\.\d{1,3}){3}`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: analyze-probes <file-or-directory> [...]")
		os.Exit(2)
	}

	var captures []string
	for _, arg := range os.Args[1:] {
		found, err := collectCaptures(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			os.Exit(2)
		}
		captures = append(captures, found...)
	}
	if len(captures) == 0 {
		fmt.Fprintln(os.Stderr, "no .xml or .txt captures found")
		os.Exit(2)
	}
	sort.Strings(captures)

	vendors := map[string]int{}
	unknownScopes := map[string][]string{}
	parsed := 0

	for _, file := range captures {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			continue
		}
		raw := string(data)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed++

		ip := ipInName.FindString(filepath.Base(file))
		if ip == "" {
			ip = "192.0.2.1"
		}
		cam := discovery.ParseResponse(raw, ip)
		vendors[cam.Manufacturer]++

		if !cam.Identified() {
			fmt.Printf("? %s\n", file)
			unknownScopes[file] = scopeURIs(raw)
			continue
		}
		fmt.Printf("✓ %s → %s (%s)\n", file, cam.Manufacturer, cam.RTSPURL)
	}

	printSummary(parsed, vendors, unknownScopes)
	if len(unknownScopes) > 0 {
		os.Exit(1)
	}
}

func collectCaptures(path string) ([]string, error) {
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
		case ".xml", ".txt":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// scopeURIs pulls the onvif:// scope tokens out of a response, the part
// of an unidentified response that usually names the vendor.
func scopeURIs(raw string) []string {
	var uris []string
	for _, field := range strings.Fields(raw) {
		if strings.HasPrefix(field, "onvif://") {
			uris = append(uris, field)
		}
	}
	return uris
}

func printSummary(parsed int, vendors map[string]int, unknownScopes map[string][]string) {
	fmt.Printf("\n%d response(s) parsed\n", parsed)
	if parsed == 0 {
		return
	}

	names := make([]string, 0, len(vendors))
	for name := range vendors {
		names = append(names, name)
	}
	// Busiest vendors first, ties alphabetical.
	sort.Slice(names, func(i, j int) bool {
		if vendors[names[i]] != vendors[names[j]] {
			return vendors[names[i]] > vendors[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Printf("  %-12s %3d  (%.0f%%)\n", name, vendors[name],
			float64(vendors[name])/float64(parsed)*100)
	}

	if len(unknownScopes) == 0 {
		fmt.Println("\nEvery response identified.")
		return
	}

	fmt.Printf("\n%d unidentified; scopes to consider for the vendor table:\n", len(unknownScopes))
	files := make([]string, 0, len(unknownScopes))
	for file := range unknownScopes {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Printf("  %s\n", file)
		scopes := unknownScopes[file]
		if len(scopes) == 0 {
			fmt.Println("    (no scope URIs in response)")
			continue
		}
		for _, uri := range scopes {
			if len(uri) > 100 {
				uri = uri[:100] + "..."
			}
			fmt.Printf("    %s\n", uri)
		}
	}
}
