package gcode

import (
	"testing"

	"github.com/graelo/gcode-language-server/internal/token"
)

func TestParseLineBasic(t *testing.T) {
	toks := token.TokenizeLine("G1 X10 Y-5.5 F1500", 0, 0)
	cmd, ok := ParseLine(toks)
	if !ok {
		t.Fatal("ParseLine returned ok=false")
	}
	if cmd.Code != "G1" {
		t.Fatalf("Code = %q, want G1", cmd.Code)
	}
	if len(cmd.Parameters) != 3 {
		t.Fatalf("len(Parameters) = %d, want 3", len(cmd.Parameters))
	}
	x, ok := cmd.ParameterByLetter('X')
	if !ok || x.ValueText != "10" || x.Value.Kind != Int || x.Value.Int != 10 {
		t.Fatalf("X parameter = %+v", x)
	}
	y, ok := cmd.ParameterByLetter('y')
	if !ok || y.Value.Kind != Float || y.Value.Float != -5.5 {
		t.Fatalf("Y parameter = %+v", y)
	}
}

func TestParseLineBlankOrCommentOnly(t *testing.T) {
	for _, line := range []string{"", "   ", "; just a comment", "(a comment)"} {
		toks := token.TokenizeLine(line, 0, 0)
		if _, ok := ParseLine(toks); ok {
			t.Fatalf("ParseLine(%q) should not produce a command", line)
		}
	}
}

func TestParseLineDuplicateLetterKeptInOrder(t *testing.T) {
	toks := token.TokenizeLine("G1 X1 X2", 0, 0)
	cmd, ok := ParseLine(toks)
	if !ok {
		t.Fatal("expected a command")
	}
	if len(cmd.Parameters) != 2 {
		t.Fatalf("len(Parameters) = %d, want 2 (duplicates preserved)", len(cmd.Parameters))
	}
	first, _ := cmd.ParameterByLetter('X')
	if first.ValueText != "1" {
		t.Fatalf("ParameterByLetter should return the first occurrence, got %+v", first)
	}
}

func TestParseLineBareParameterIsMissing(t *testing.T) {
	toks := token.TokenizeLine("G28 X Y Z", 0, 0)
	cmd, ok := ParseLine(toks)
	if !ok {
		t.Fatal("expected a command")
	}
	for _, p := range cmd.Parameters {
		if p.Value.Kind != Missing {
			t.Fatalf("bare parameter %+v should derive to Missing", p)
		}
	}
}

func TestParseTextMultiline(t *testing.T) {
	text := "G28\n; comment only\nM104 S200\n"
	cmds := ParseText(text)
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2", len(cmds))
	}
	if cmds[0].Code != "G28" || cmds[1].Code != "M104" {
		t.Fatalf("cmds = %+v", cmds)
	}
}
