package document

import "testing"

func TestCommandAtOffsetFindsContainingCommand(t *testing.T) {
	text := "G28\nM104 S200\n"
	cmd, ok := commandAtOffset(text, 6) // inside "M104"
	if !ok || cmd.Code != "M104" {
		t.Fatalf("commandAtOffset = %+v, %v, want M104", cmd, ok)
	}
}

func TestCommandAtOffsetMissesWhitespaceBetweenLines(t *testing.T) {
	text := "G28\nM104 S200\n"
	if _, ok := commandAtOffset(text, 3); ok {
		t.Fatal("offset on the newline should not match any command")
	}
}

func TestParameterAtOffsetFindsParameter(t *testing.T) {
	text := "M104 S200\n"
	cmd, ok := commandAtOffset(text, 0)
	if !ok {
		t.Fatal("expected a command at offset 0")
	}
	p, ok := parameterAtOffset(cmd, 6)
	if !ok || p.Letter != 'S' {
		t.Fatalf("parameterAtOffset = %+v, %v, want S", p, ok)
	}
}
