package lspserver

import (
	"go.lsp.dev/protocol"

	"github.com/graelo/gcode-language-server/internal/validate"
)

// toProtocolDiagnostics converts the core validation diagnostics for
// one document revision into the wire shape, resolving byte spans to
// UTF-16 LSP ranges against that revision's text.
func toProtocolDiagnostics(text string, diags []validate.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    rangeForSpan(text, d.Span.Start.Byte, d.Span.End.Byte),
			Severity: toProtocolSeverity(d.Severity),
			Source:   "gcode-ls",
			Message:  d.Message,
			Code:     string(d.Kind),
		})
	}
	return out
}

func toProtocolSeverity(s validate.Severity) protocol.DiagnosticSeverity {
	switch s {
	case validate.Error:
		return protocol.DiagnosticSeverityError
	case validate.Warning:
		return protocol.DiagnosticSeverityWarning
	case validate.Info:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}
