package document

import (
	"fmt"
	"strings"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/gcode"
	"github.com/graelo/gcode-language-server/internal/token"
)

// SymbolKind classifies a command occurrence for outline/breadcrumb
// display; unmapped commands fall back to KindGeneric (§4.7).
type SymbolKind uint8

const (
	KindGeneric SymbolKind = iota
	KindMovement
	KindTemperature
	KindTool
	KindFan
)

// commandSymbolKinds maps well-known command codes to a SymbolKind.
// Codes not listed here classify as KindGeneric.
var commandSymbolKinds = map[string]SymbolKind{
	"G0":   KindMovement,
	"G1":   KindMovement,
	"G2":   KindMovement,
	"G3":   KindMovement,
	"G28":  KindMovement,
	"G29":  KindMovement,
	"M104": KindTemperature,
	"M109": KindTemperature,
	"M140": KindTemperature,
	"M190": KindTemperature,
	"M106": KindFan,
	"M107": KindFan,
}

// keyParamLetters are the movement-like letters surfaced in a
// symbol's display name (§4.7).
var keyParamLetters = []byte{'X', 'Y', 'Z', 'E', 'S'}

// Symbol is one outline entry: one per command occurrence.
type Symbol struct {
	Name string
	Kind SymbolKind
	Span token.Span
}

// DocumentSymbols returns one Symbol per command occurrence in the
// document, in source order.
func (s *Service) DocumentSymbols(uri string) ([]Symbol, bool) {
	snap, ok := s.snapshot(uri)
	if !ok {
		return nil, false
	}

	cmds := gcode.ParseText(snap.text)
	symbols := make([]Symbol, 0, len(cmds))
	for _, cmd := range cmds {
		symbols = append(symbols, Symbol{
			Name: symbolName(cmd, snap.resolution.Flavor),
			Kind: symbolKind(cmd.Code),
			Span: cmd.Span,
		})
	}
	return symbols, true
}

func symbolKind(code string) SymbolKind {
	if k, ok := commandSymbolKinds[strings.ToUpper(code)]; ok {
		return k
	}
	return KindGeneric
}

func symbolName(cmd gcode.Command, fl *flavor.Flavor) string {
	keyParams := keyParamsOf(cmd)
	desc := ""
	if def, ok := fl.GetCommand(cmd.Code); ok {
		desc = def.Description(false)
	}

	switch {
	case keyParams != "" && desc != "":
		return fmt.Sprintf("%s %s (%s)", cmd.Code, keyParams, desc)
	case keyParams != "":
		return fmt.Sprintf("%s %s", cmd.Code, keyParams)
	case desc != "":
		return fmt.Sprintf("%s (%s)", cmd.Code, desc)
	default:
		return cmd.Code
	}
}

func keyParamsOf(cmd gcode.Command) string {
	var parts []string
	for _, letter := range keyParamLetters {
		if p, ok := cmd.ParameterByLetter(letter); ok {
			if p.ValueText == "" {
				parts = append(parts, string(letter))
			} else {
				parts = append(parts, string(letter)+p.ValueText)
			}
		}
	}
	return strings.Join(parts, " ")
}
