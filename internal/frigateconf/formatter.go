package frigateconf

import "strings"

// FormatDocument applies the blank-line layout used for written configs:
// one blank line between top-level sections and one before every camera
// entry under cameras:. Parsing is unaffected; the spacing only aids
// hand editing.
func FormatDocument(data []byte) []byte {
	return applyCameraSpacing(applySectionSpacing(data))
}

// applySectionSpacing inserts a blank line before each top-level key
// after the first. Comment lines attached to a key move with it.
func applySectionSpacing(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines)+8)
	seenFirst := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		topLevel := stripped != "" &&
			indentOf(line) == 0 &&
			!strings.HasPrefix(stripped, "#") &&
			!strings.HasPrefix(stripped, "-") &&
			strings.Contains(line, ":")
		if topLevel {
			if seenFirst {
				insert := len(out)
				for insert > 0 {
					prev := out[insert-1]
					if indentOf(prev) == 0 && strings.HasPrefix(strings.TrimSpace(prev), "#") {
						insert--
						continue
					}
					break
				}
				if insert > 0 && strings.TrimSpace(out[insert-1]) != "" {
					out = append(out[:insert], append([]string{""}, out[insert:]...)...)
				}
			}
			seenFirst = true
		}
		out = append(out, line)
	}
	return []byte(strings.Join(out, "\n"))
}

// applyCameraSpacing inserts a blank line before every direct child of
// the cameras section. The first camera fixes the indentation width that
// identifies camera keys.
func applyCameraSpacing(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines)+8)
	inCameras := false
	cameraIndent := -1

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if indentOf(line) == 0 && stripped == "cameras:" {
			inCameras = true
			cameraIndent = -1
			out = append(out, line)
			continue
		}
		if inCameras && stripped != "" && indentOf(line) == 0 && strings.Contains(line, ":") {
			inCameras = false
			cameraIndent = -1
		}

		if inCameras && stripped != "" {
			indent := indentOf(line)
			if cameraIndent < 0 && indent > 0 && strings.Contains(line, ":") {
				cameraIndent = indent
			}
			if cameraIndent > 0 && indent == cameraIndent && strings.HasSuffix(strings.TrimRight(line, " \t"), ":") {
				if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
					out = append(out, "")
				}
			}
		}
		out = append(out, line)
	}
	return []byte(strings.Join(out, "\n"))
}
