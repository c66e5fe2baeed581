package document

import (
	"fmt"
	"strings"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/gcode"
	"github.com/graelo/gcode-language-server/internal/token"
)

// CompletionItem is one suggestion returned from a completion query.
type CompletionItem struct {
	Label      string
	InsertText string
	Detail     string
	Preselect  bool
	// SortText orders required parameters ahead of optional ones
	// ("0"/"1" prefix); empty for command completions, which have no
	// such ordering.
	SortText string
}

// Completion implements §4.7's completion contract: at the start of a
// line (or after whitespace with no command yet on the line) it
// offers every known command; once a command is established on the
// line, it offers that command's still-unused parameters.
func (s *Service) Completion(uri string, byteOffset int) ([]CompletionItem, bool) {
	snap, ok := s.snapshot(uri)
	if !ok || snap.resolution.Flavor == nil {
		return nil, false
	}

	line, base := currentLine(snap.text, byteOffset)
	tokensBeforeCursor := tokensBefore(line, base, byteOffset)

	if len(tokensBeforeCursor) == 0 || tokensBeforeCursor[0].Kind != token.Command {
		return commandCompletions(snap.resolution.Flavor), true
	}

	cmd, ok := gcode.ParseLine(token.TokenizeLine(line, 0, base))
	if !ok {
		return commandCompletions(snap.resolution.Flavor), true
	}
	def, ok := snap.resolution.Flavor.GetCommand(cmd.Code)
	if !ok {
		return nil, true
	}
	return parameterCompletions(cmd, def), true
}

// currentLine returns the line of text containing byteOffset and the
// absolute byte offset of that line's first byte.
func currentLine(text string, byteOffset int) (line string, base int) {
	end := clampOffset(text, byteOffset)
	start := strings.LastIndexByte(text[:end], '\n') + 1
	stop := len(text)
	if idx := strings.IndexByte(text[end:], '\n'); idx >= 0 {
		stop = end + idx
	}
	return text[start:stop], start
}

func clampOffset(text string, byteOffset int) int {
	if byteOffset < 0 {
		return 0
	}
	if byteOffset > len(text) {
		return len(text)
	}
	return byteOffset
}

// tokensBefore returns the tokens of line (tokenized with absolute
// base offset) that start at or before byteOffset, including a token the
// cursor is inside of or at the end of.
func tokensBefore(line string, base, byteOffset int) []token.Token {
	var out []token.Token
	for _, tok := range token.TokenizeLine(line, 0, base) {
		if tok.Span.Start.Byte <= byteOffset {
			out = append(out, tok)
		}
	}
	return out
}

func commandCompletions(fl *flavor.Flavor) []CompletionItem {
	items := make([]CompletionItem, 0, len(fl.Commands))
	for code, def := range fl.Commands {
		items = append(items, CompletionItem{
			Label:      code,
			InsertText: code,
			Detail:     def.Description(false),
		})
	}
	return items
}

func parameterCompletions(cmd gcode.Command, def flavor.CommandDef) []CompletionItem {
	used := make(map[string]bool, len(cmd.Parameters))
	for _, p := range cmd.Parameters {
		used[strings.ToUpper(string(p.Letter))] = true
	}

	var items []CompletionItem
	for _, pdef := range def.Parameters {
		if used[strings.ToUpper(pdef.Name)] {
			continue
		}
		sortText := "1"
		if pdef.Required {
			sortText = "0"
		}
		items = append(items, CompletionItem{
			Label:      pdef.Name,
			InsertText: insertTextFor(pdef),
			Detail:     pdef.Description,
			Preselect:  pdef.Required,
			SortText:   sortText,
		})
	}
	return items
}

// insertTextFor synthesizes a typed placeholder snippet for pdef, so
// accepting the completion leaves the user with a value of roughly
// the right shape (a float literal, an empty quoted string, a bare
// flag letter) instead of an empty parameter.
func insertTextFor(pdef flavor.ParameterDef) string {
	switch pdef.Type {
	case flavor.TypeFloat:
		return fmt.Sprintf("%s${1:0.0}", pdef.Name)
	case flavor.TypeInt:
		return fmt.Sprintf("%s${1:0}", pdef.Name)
	case flavor.TypeString:
		return fmt.Sprintf("%s\"${1:}\"", pdef.Name)
	case flavor.TypeBool:
		return pdef.Name
	default:
		return fmt.Sprintf("%s${1:}", pdef.Name)
	}
}
