// Package modeline implements the §4.6 in-document flavor override
// scan, grounded on the original source's detect_modeline_flavor /
// extract_flavor_from_modeline.
package modeline

import "strings"

const maxLinesEachEnd = 5
const shortDocumentThreshold = 10

// Detect scans text for the first `; gcode_flavor=<name>` or
// `// gcode_flavor=<name>` comment, per the scan-scope rule: documents
// of 10 lines or fewer are scanned in full; longer documents are
// scanned only in their first 5 and last 5 lines. The returned name is
// untrusted raw text — the caller is responsible for validating it
// against the flavor registry.
func Detect(text string) (name string, found bool) {
	lines := splitLines(text)

	if len(lines) <= shortDocumentThreshold {
		for _, line := range lines {
			if n, ok := extract(line); ok {
				return n, true
			}
		}
		return "", false
	}

	for i := 0; i < maxLinesEachEnd && i < len(lines); i++ {
		if n, ok := extract(lines[i]); ok {
			return n, true
		}
	}
	start := len(lines) - maxLinesEachEnd
	for i := start; i < len(lines); i++ {
		if n, ok := extract(lines[i]); ok {
			return n, true
		}
	}
	return "", false
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end := i
			if end > start && text[end-1] == '\r' {
				end--
			}
			lines = append(lines, text[start:end])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// extract looks for "gcode_flavor=<name>" inside a ";" or "//" comment
// on the given line and returns the name if the line is a well-formed
// modeline.
func extract(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	comment := ""
	switch {
	case strings.HasPrefix(trimmed, ";"):
		comment = strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(trimmed, "//"):
		comment = strings.TrimSpace(trimmed[2:])
	default:
		return "", false
	}

	const key = "gcode_flavor"
	lower := strings.ToLower(comment)
	idx := strings.Index(lower, key)
	if idx == -1 {
		return "", false
	}
	rest := comment[idx+len(key):]
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	rest = strings.TrimLeft(rest[1:], " \t")

	end := len(rest)
	for i, c := range rest {
		if c == ';' || c == '#' {
			end = i
			break
		}
	}
	name := strings.TrimSpace(rest[:end])
	if !isValidFlavorName(name) {
		return "", false
	}
	return name, true
}

func isValidFlavorName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
