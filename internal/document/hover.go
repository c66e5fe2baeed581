package document

import (
	"fmt"
	"strings"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/token"
)

// Hover is the result of a hover query: a formatted description and
// the span it applies to, so the caller can build an LSP Range.
type Hover struct {
	Contents string
	Span     token.Span
}

// Hover locates the token at byteOffset and, for a command or
// parameter token, returns a formatted description drawn from the
// active flavor. Comments, whitespace, and unresolved documents
// produce no result (§4.7 scenario 1).
func (s *Service) Hover(uri string, byteOffset int) (Hover, bool) {
	snap, ok := s.snapshot(uri)
	if !ok || snap.resolution.Flavor == nil {
		return Hover{}, false
	}

	tok, ok := token.TokenAt(token.TokenizeText(snap.text), byteOffset)
	if !ok || tok.Kind == token.Comment {
		return Hover{}, false
	}

	cmd, ok := commandAtOffset(snap.text, byteOffset)
	if !ok {
		return Hover{}, false
	}

	def, ok := snap.resolution.Flavor.GetCommand(cmd.Code)
	if !ok {
		return Hover{}, false
	}

	if tok.Kind == token.Command {
		return Hover{
			Contents: commandHoverText(def, s.longDescriptions),
			Span:     cmd.Span,
		}, true
	}

	p, ok := parameterAtOffset(cmd, byteOffset)
	if !ok {
		return Hover{}, false
	}
	pdef, ok := def.FindParameter(string(p.Letter))
	if !ok {
		return Hover{}, false
	}
	return Hover{
		Contents: parameterHoverText(pdef),
		Span:     p.Span,
	}, true
}

// commandHoverText appends a "**Parameters:**" bullet list to the
// command's description, each entry naming the parameter, its type,
// and required/optional — beyond the bare description text.
func commandHoverText(def flavor.CommandDef, useLong bool) string {
	text := def.Description(useLong)
	if len(def.Parameters) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n**Parameters:**\n")
	for _, pdef := range def.Parameters {
		requirement := "optional"
		if pdef.Required {
			requirement = "required"
		}
		b.WriteString(fmt.Sprintf("- `%s` (%s, %s)", pdef.Name, pdef.Type, requirement))
		if pdef.Description != "" {
			b.WriteString(": " + pdef.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func parameterHoverText(pdef flavor.ParameterDef) string {
	text := fmt.Sprintf("**%s** (%s)", pdef.Name, pdef.Type)
	if pdef.Required {
		text += " - required"
	}
	if pdef.Description != "" {
		text += "\n\n" + pdef.Description
	}
	return text
}
