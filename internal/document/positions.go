package document

import (
	"github.com/graelo/gcode-language-server/internal/gcode"
	"github.com/graelo/gcode-language-server/internal/modeline"
)

// detectModeline is a thin seam over the modeline package so the rest
// of this file can be exercised without pulling in a real document.
func detectModeline(text string) (string, bool) {
	return modeline.Detect(text)
}

// commandAtOffset re-parses the whole document and returns the
// command whose source span contains byteOffset. Re-parsing on every
// query keeps the document record itself free of cached token state,
// at the cost of a full parse of the document per query.
func commandAtOffset(text string, byteOffset int) (gcode.Command, bool) {
	for _, cmd := range gcode.ParseText(text) {
		if cmd.Span.Start.Byte <= byteOffset && byteOffset < cmd.Span.End.Byte {
			return cmd, true
		}
	}
	return gcode.Command{}, false
}

// parameterAtOffset returns the parameter token (if any) inside cmd
// whose span contains byteOffset, distinguishing "cursor is over the
// command word" from "cursor is over one specific parameter".
func parameterAtOffset(cmd gcode.Command, byteOffset int) (gcode.Parameter, bool) {
	for _, p := range cmd.Parameters {
		if p.Span.Start.Byte <= byteOffset && byteOffset < p.Span.End.Byte {
			return p, true
		}
	}
	return gcode.Parameter{}, false
}
