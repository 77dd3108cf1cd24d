package frigateconf

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecoveryReport describes what a best-effort reconstruction did so the
// caller can surface it instead of silently degrading.
type RecoveryReport struct {
	// Recovered is true when strict parsing failed and the document was
	// rebuilt by the line scanner.
	Recovered bool
	// DroppedCameras lists cameras removed because they failed
	// validation after loading or recovery.
	DroppedCameras []string
	// Notes carries human-readable details: what was restored, what was
	// dropped and why.
	Notes []string
}

// HasFindings reports whether the report contains anything worth showing.
func (r *RecoveryReport) HasFindings() bool {
	return r != nil && (r.Recovered || len(r.DroppedCameras) > 0 || len(r.Notes) > 0)
}

// Summary renders the report for display.
func (r *RecoveryReport) Summary() string {
	if !r.HasFindings() {
		return ""
	}
	var sb strings.Builder
	if r.Recovered {
		sb.WriteString("Configuration was not valid YAML; a best-effort reconstruction was used.\n")
	}
	if len(r.DroppedCameras) > 0 {
		sb.WriteString(fmt.Sprintf("Dropped camera entries: %s\n", strings.Join(r.DroppedCameras, ", ")))
	}
	for _, note := range r.Notes {
		sb.WriteString("  • " + note + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Sections the flat scanner is allowed to restore from damaged input.
var recoverableSections = map[string]bool{
	"mqtt":      true,
	"detectors": true,
	"model":     true,
	"version":   true,
}

// RecoverDocument rebuilds the known config shape from input that failed
// strict parsing. It starts from the default document, restores flat
// mqtt/detectors/model/version values it can still read, then
// reconstructs camera entries. Cameras are returned unvalidated; Load
// applies the validator and fills in DroppedCameras.
func RecoverDocument(content []byte) (*Document, *RecoveryReport) {
	report := &RecoveryReport{Recovered: true}
	doc := baseDocument()
	lines := strings.Split(string(content), "\n")

	recoverSections(doc, lines, report)
	cams := recoverCameras(lines, report)
	if cams.Len() > 0 {
		report.Notes = append(report.Notes, fmt.Sprintf("reconstructed %d camera entr%s", cams.Len(), plural(cams.Len(), "y", "ies")))
	}
	doc.SetCameras(cams)
	return doc, report
}

// recoverSections restores top-level non-camera sections as flat scalar
// maps. Nested structure inside a section is not reconstructed here; the
// save path repairs the detectors shape when that flattening matters.
func recoverSections(doc *Document, lines []string, report *RecoveryReport) {
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || indentOf(line) != 0 {
			continue
		}

		// A top-level inline scalar such as `version: "0.17-0"`.
		if !strings.HasSuffix(stripped, ":") {
			if key, val, ok := splitKeyValue(stripped); ok && key == "version" && val != "" {
				doc.SetSection("version", strNode(unquoteScalar(val)))
				report.Notes = append(report.Notes, "restored top-level version value")
			}
			continue
		}

		name := strings.TrimSpace(strings.TrimSuffix(stripped, ":"))
		if name == "cameras" || !recoverableSections[name] {
			continue
		}

		section := newMapNode()
		count := 0
		for j := i + 1; j < len(lines); j++ {
			next := lines[j]
			ns := strings.TrimSpace(next)
			if indentOf(next) == 0 && strings.HasSuffix(ns, ":") && ns != "" {
				break
			}
			if ns == "" || strings.HasPrefix(ns, "#") || indentOf(next) == 0 {
				continue
			}
			key, val, ok := splitKeyValue(ns)
			if !ok || val == "" {
				continue
			}
			mapSet(section, key, coerceScalar(val))
			count++
		}
		if count > 0 {
			doc.SetSection(name, section)
			report.Notes = append(report.Notes, fmt.Sprintf("restored %d value%s for section %q", count, plural(count, "", "s"), name))
		}
	}
}

// recoverCameras rebuilds camera entries from the damaged layout this
// scanner targets: camera names at zero indent below cameras:, with
// subsection headers and scalars at arbitrary indentation.
func recoverCameras(lines []string, report *RecoveryReport) *CameraSet {
	set := NewCameraSet()
	inCameras := false
	var camera *yaml.Node
	cameraName := ""
	subsection := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		if stripped == "cameras:" {
			inCameras = true
			camera = nil
			subsection = ""
			continue
		}
		if !inCameras {
			continue
		}

		switch {
		case indentOf(line) == 0 && strings.HasSuffix(stripped, ":") &&
			!strings.Contains(strings.ToLower(stripped), "version:"):
			cameraName = strings.TrimSpace(strings.TrimSuffix(stripped, ":"))
			camera = newCameraSkeleton()
			set.SetNode(cameraName, camera)
			subsection = ""

		case camera != nil && stripped == "ffmpeg:":
			subsection = "ffmpeg"

		case camera != nil && subsection == "ffmpeg" && stripped == "inputs:":
			i = recoverInputs(lines, i, camera, cameraName, report)
			subsection = ""

		case camera != nil && strings.HasSuffix(stripped, ":") && !strings.HasPrefix(stripped, "-"):
			subsection = strings.TrimSpace(strings.TrimSuffix(stripped, ":"))

		case camera != nil && subsection != "" && strings.HasPrefix(stripped, "- "):
			if subsection != "track" {
				continue
			}
			objects, ok := mapGet(camera, "objects")
			if !ok {
				continue
			}
			track, ok := mapGet(objects, "track")
			if !ok || track.Kind != yaml.SequenceNode {
				continue
			}
			track.Content = append(track.Content, strNode(strings.TrimSpace(stripped[2:])))

		case camera != nil && subsection != "" && strings.Contains(stripped, ":") &&
			!strings.HasPrefix(stripped, "-"):
			key, val, ok := splitKeyValue(stripped)
			if !ok {
				continue
			}
			sub, found := mapGet(camera, subsection)
			if !found || sub.Kind != yaml.MappingNode {
				continue
			}
			mapSet(sub, key, coerceScalar(val))
		}
	}
	return set
}

// recoverInputs reads an ffmpeg.inputs block. The path may sit inline
// (`- path: rtsp://...`) or, in the damaged files this recovers, alone on
// the following line. The scan is bounded by the camera block so a broken
// inputs list cannot swallow the next camera.
func recoverInputs(lines []string, start int, camera *yaml.Node, cameraName string, report *RecoveryReport) int {
	end := start + 1
	for end < len(lines) {
		s := strings.TrimSpace(lines[end])
		if s != "" && !strings.HasPrefix(s, "#") && indentOf(lines[end]) == 0 {
			break
		}
		end++
	}

	path := ""
	j := start + 1
	for ; j < end; j++ {
		s := strings.TrimSpace(lines[j])
		if s == "- path:" {
			for j++; j < end; j++ {
				next := strings.TrimSpace(lines[j])
				if next == "" || strings.HasPrefix(next, "#") {
					continue
				}
				if !strings.HasPrefix(next, "-") {
					path = next
					j++
				}
				break
			}
			break
		}
		if strings.HasPrefix(s, "- path:") {
			path = strings.TrimSpace(strings.TrimPrefix(s, "- path:"))
			j++
			break
		}
	}

	for ; j < end; j++ {
		if strings.TrimSpace(lines[j]) == "roles:" {
			j++
			break
		}
	}
	roles := newSeqNode()
	for ; j < end; j++ {
		s := strings.TrimSpace(lines[j])
		if !strings.HasPrefix(s, "- ") {
			break
		}
		roles.Content = append(roles.Content, strNode(strings.TrimSpace(s[2:])))
	}

	input := newMapNode()
	if path != "" {
		mapSet(input, "path", strNode(unquoteScalar(path)))
	}
	if len(roles.Content) > 0 {
		mapSet(input, "roles", roles)
	}
	if len(input.Content) > 0 {
		ff, _ := mapGet(camera, "ffmpeg")
		inputs, _ := mapGet(ff, "inputs")
		inputs.Content = append(inputs.Content, input)
	} else {
		report.Notes = append(report.Notes, fmt.Sprintf("camera %q: could not reconstruct ffmpeg inputs", cameraName))
	}
	return j - 1
}

// newCameraSkeleton returns the subsection layout recovered cameras are
// filled into. Subsections that stay empty still serialize, matching the
// shape a repaired file had before.
func newCameraSkeleton() *yaml.Node {
	camera := newMapNode()
	ffmpeg := newMapNode()
	mapSet(ffmpeg, "inputs", newSeqNode())
	mapSet(camera, "ffmpeg", ffmpeg)
	mapSet(camera, "detect", newMapNode())
	objects := newMapNode()
	mapSet(objects, "track", newSeqNode())
	mapSet(camera, "objects", objects)
	mapSet(camera, "snapshots", newMapNode())
	mapSet(camera, "record", newMapNode())
	alerts := newMapNode()
	mapSet(alerts, "retain", newMapNode())
	mapSet(camera, "alerts", alerts)
	detections := newMapNode()
	mapSet(detections, "retain", newMapNode())
	mapSet(camera, "detections", detections)
	return camera
}

// coerceScalar types a recovered scalar: booleans, integers, then floats.
// The float check requires a dot and rejects values containing a dash so
// version-like strings ("0.17-0") stay strings.
func coerceScalar(raw string) *yaml.Node {
	v := unquoteScalar(strings.TrimSpace(raw))
	switch strings.ToLower(v) {
	case "true":
		return boolNode(true)
	case "false":
		return boolNode(false)
	}
	if v == "" {
		return strNode("")
	}
	if isDigits(v) {
		if n, err := strconv.Atoi(v); err == nil {
			return intNode(n)
		}
		return strNode(v)
	}
	if strings.Contains(v, ".") && !strings.Contains(v, "-") {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return floatNode(f)
		}
	}
	return strNode(v)
}

// indentOf counts leading whitespace characters.
func indentOf(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// splitKeyValue splits `key: value` on the first colon, trimming both
// parts. The value keeps any further colons (device: PCIe:0).
func splitKeyValue(s string) (key, value string, ok bool) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(s[:idx])
	value = strings.TrimSpace(s[idx+1:])
	return key, value, key != ""
}

// unquoteScalar strips one matching pair of surrounding quotes.
func unquoteScalar(v string) string {
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
