package modeline

import "testing"

func TestDetectShortDocument(t *testing.T) {
	text := "; gcode_flavor=marlin\nG28\nM104 S200\nG1 X10\n"
	name, ok := Detect(text)
	if !ok || name != "marlin" {
		t.Fatalf("Detect() = %q, %v, want marlin, true", name, ok)
	}
}

func TestDetectSlashSlashComment(t *testing.T) {
	name, ok := Detect("// gcode_flavor = klipper\nG28\n")
	if !ok || name != "klipper" {
		t.Fatalf("Detect() = %q, %v", name, ok)
	}
}

func TestDetectLongDocumentInHeadWindow(t *testing.T) {
	lines := make([]string, 50)
	lines[2] = "; gcode_flavor=marlin"
	for i := range lines {
		if lines[i] == "" {
			lines[i] = "G28"
		}
	}
	text := joinLines(lines)
	name, ok := Detect(text)
	if !ok || name != "marlin" {
		t.Fatalf("Detect() = %q, %v, want marlin at line 3 of 50", name, ok)
	}
}

func TestDetectLongDocumentModelineInMiddleIsMissed(t *testing.T) {
	lines := make([]string, 50)
	lines[24] = "; gcode_flavor=marlin"
	for i := range lines {
		if lines[i] == "" {
			lines[i] = "G28"
		}
	}
	text := joinLines(lines)
	if _, ok := Detect(text); ok {
		t.Fatal("Detect() should not find a modeline buried in the middle of a long document")
	}
}

func TestDetectLongDocumentInTailWindow(t *testing.T) {
	lines := make([]string, 50)
	lines[47] = "; gcode_flavor=klipper"
	for i := range lines {
		if lines[i] == "" {
			lines[i] = "G28"
		}
	}
	text := joinLines(lines)
	name, ok := Detect(text)
	if !ok || name != "klipper" {
		t.Fatalf("Detect() = %q, %v, want klipper near end", name, ok)
	}
}

func TestDetectNoModeline(t *testing.T) {
	if _, ok := Detect("G28\nM104 S200\n"); ok {
		t.Fatal("Detect() should report not-found")
	}
}

func TestDetectRejectsInvalidName(t *testing.T) {
	if _, ok := Detect("; gcode_flavor=not valid!\n"); ok {
		t.Fatal("Detect() should reject a name with disallowed characters")
	}
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
