package token

import (
	"strings"
	"testing"
)

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestTokenizeLineSimpleCommand(t *testing.T) {
	toks := TokenizeLine("G1 X10 Y-5.5 F1500", 0, 0)
	if got, want := texts(toks), []string{"G1", "X10", "Y-5.5", "F1500"}; !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
	if toks[0].Kind != Command {
		t.Fatalf("first token kind = %v, want Command", toks[0].Kind)
	}
	for _, tok := range toks[1:] {
		if tok.Kind != Parameter {
			t.Fatalf("token %q kind = %v, want Parameter", tok.Text, tok.Kind)
		}
		if tok.Malformed {
			t.Fatalf("token %q unexpectedly malformed", tok.Text)
		}
	}
}

func TestTokenizeLineCommentSemicolon(t *testing.T) {
	toks := TokenizeLine("G28 ; home all axes", 0, 0)
	if len(toks) != 2 {
		t.Fatalf("len(toks) = %d, want 2", len(toks))
	}
	if toks[1].Kind != Comment || toks[1].Text != "; home all axes" {
		t.Fatalf("comment token = %+v", toks[1])
	}
}

func TestTokenizeLineParenComment(t *testing.T) {
	toks := TokenizeLine("G1 (move) X10", 0, 0)
	if got, want := texts(toks), []string{"G1", "(move)", "X10"}; !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
	if toks[1].Kind != Comment {
		t.Fatalf("paren token kind = %v, want Comment", toks[1].Kind)
	}
}

func TestTokenizeLineUnclosedParenComment(t *testing.T) {
	toks := TokenizeLine("G1 (unterminated", 0, 0)
	if len(toks) != 2 {
		t.Fatalf("len(toks) = %d, want 2", len(toks))
	}
	if toks[1].Text != "(unterminated" {
		t.Fatalf("unclosed comment text = %q", toks[1].Text)
	}
}

func TestTokenizeLineCommentOnly(t *testing.T) {
	toks := TokenizeLine("; just a comment", 0, 0)
	if len(toks) != 1 || toks[0].Kind != Comment {
		t.Fatalf("toks = %+v", toks)
	}
}

func TestTokenizeLineEmpty(t *testing.T) {
	if toks := TokenizeLine("", 0, 0); len(toks) != 0 {
		t.Fatalf("toks = %+v, want empty", toks)
	}
	if toks := TokenizeLine("   \t  ", 0, 0); len(toks) != 0 {
		t.Fatalf("toks = %+v, want empty", toks)
	}
}

func TestTokenizeLineBareParameter(t *testing.T) {
	toks := TokenizeLine("G28 X Y Z", 0, 0)
	if got, want := texts(toks[1:]), []string{"X", "Y", "Z"}; !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
}

func TestTokenizeLineQuotedString(t *testing.T) {
	toks := TokenizeLine(`M117 S"Printing..."`, 0, 0)
	if got, want := texts(toks), []string{"M117", `S"Printing..."`}; !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
}

func TestTokenizeLineMalformedUnrecognized(t *testing.T) {
	toks := TokenizeLine("G1 @@@ X10", 0, 0)
	if got, want := texts(toks), []string{"G1", "@@@", "X10"}; !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
	if !toks[1].Malformed {
		t.Fatalf("unrecognized token should be malformed: %+v", toks[1])
	}
	if toks[0].Malformed || toks[2].Malformed {
		t.Fatalf("well-formed tokens marked malformed")
	}
}

func TestTokenizeLineCompositeCommand(t *testing.T) {
	toks := TokenizeLine("M862.3 P\"MK3S\"", 0, 0)
	if toks[0].Text != "M862.3" || toks[0].Kind != Command {
		t.Fatalf("composite command token = %+v", toks[0])
	}
}

func TestTokenizeTextRoundTripPositions(t *testing.T) {
	text := "G28\nM104 S200 ; heat\nG1 X1 Y2\n"
	toks := TokenizeText(text)
	for _, tok := range toks {
		got := text[tok.Span.Start.Byte:tok.Span.End.Byte]
		if got != tok.Text {
			t.Fatalf("slice at span %+v = %q, want %q", tok.Span, got, tok.Text)
		}
	}
}

func TestTokenAt(t *testing.T) {
	text := "G28 X10\n"
	toks := TokenizeText(text)
	// offset 1 is inside "G28"
	tok, ok := TokenAt(toks, 1)
	if !ok || tok.Text != "G28" {
		t.Fatalf("TokenAt(1) = %+v, %v", tok, ok)
	}
	// offset 3 is the space between tokens
	if _, ok := TokenAt(toks, 3); ok {
		t.Fatalf("TokenAt(3) should miss (whitespace)")
	}
	// offset 4 is inside "X10"
	tok, ok = TokenAt(toks, 4)
	if !ok || tok.Text != "X10" {
		t.Fatalf("TokenAt(4) = %+v, %v", tok, ok)
	}
}

func TestTokenizerStream(t *testing.T) {
	tz := NewTokenizer(strings.NewReader("G28\nM104 S200\n"), 0)
	var got []string
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		got = append(got, tok.Text)
	}
	if err := tz.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"G28", "M104", "S200"}; !equalStrings(got, want) {
		t.Fatalf("got = %v, want %v", got, want)
	}
}

func TestTokenizerStreamCRLFByteOffsets(t *testing.T) {
	tz := NewTokenizer(strings.NewReader("G28\r\nM104 S200\r\n"), 0)
	var offsets []int
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		offsets = append(offsets, tok.Span.Start.Byte)
	}
	if err := tz.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "G28\r\n" is 5 bytes, so the second line starts at byte 5 and
	// "S200" follows "M104 " at byte 10.
	want := []int{0, 5, 10}
	if !equalInts(offsets, want) {
		t.Fatalf("got = %v, want %v", offsets, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
