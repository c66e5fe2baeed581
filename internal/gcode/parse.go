package gcode

import (
	"strings"

	"github.com/graelo/gcode-language-server/internal/token"
)

// ParseLine builds a Command from the tokens of a single line (as
// produced by token.TokenizeLine). The first non-comment token must be
// a Command-kind token; if the line is blank or comment-only, ok is
// false and no Command is produced, per §4.2.
func ParseLine(tokens []token.Token) (Command, bool) {
	var first *token.Token
	for i := range tokens {
		if tokens[i].Kind != token.Comment {
			first = &tokens[i]
			break
		}
	}
	if first == nil || first.Kind != token.Command {
		return Command{}, false
	}

	cmd := Command{
		Code: strings.ToUpper(first.Text),
		Span: first.Span,
	}

	seenEnd := first.Span.End
	for _, tok := range tokens {
		if tok.Span.Start.Byte <= first.Span.Start.Byte {
			continue
		}
		if tok.Kind == token.Comment {
			continue
		}
		cmd.Parameters = append(cmd.Parameters, parameterFromToken(tok))
		if tok.Span.End.Byte > seenEnd.Byte {
			seenEnd = tok.Span.End
		}
	}
	cmd.Span.End = seenEnd

	return cmd, true
}

func parameterFromToken(tok token.Token) Parameter {
	letter := upper(tok.Text[0])
	valueText := tok.Text[1:]
	return Parameter{
		Letter:    letter,
		ValueText: valueText,
		Value:     parseValue(valueText),
		Span:      tok.Span,
		Malformed: tok.Malformed,
	}
}

// ParseText parses every line of a document, returning one Command per
// line that produces one (blank/comment-only lines are skipped).
func ParseText(text string) []Command {
	var commands []Command
	lineStart := 0
	lineNo := 0
	appendLine := func(line string, base int) {
		toks := token.TokenizeLine(line, lineNo, base)
		if cmd, ok := ParseLine(toks); ok {
			commands = append(commands, cmd)
		}
		lineNo++
	}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end := i
			if end > lineStart && text[end-1] == '\r' {
				end--
			}
			appendLine(text[lineStart:end], lineStart)
			lineStart = i + 1
		}
	}
	if lineStart < len(text) {
		appendLine(text[lineStart:], lineStart)
	}
	return commands
}
