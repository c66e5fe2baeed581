package lspserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/graelo/gcode-language-server/internal/token"
	"github.com/graelo/gcode-language-server/internal/validate"
)

func span(startByte, endByte int) token.Span {
	return token.Span{
		Start: token.Position{Byte: startByte},
		End:   token.Position{Byte: endByte},
	}
}

func TestToProtocolDiagnostics(t *testing.T) {
	text := "G0 X10\nM999\n"
	diags := []validate.Diagnostic{
		{Kind: validate.UnknownCommand, Severity: validate.Error, Message: "unknown command M999", Span: span(7, 11)},
		{Kind: validate.MissingRequired, Severity: validate.Warning, Message: "X or Y required", Span: span(0, 2)},
	}

	out := toProtocolDiagnostics(text, diags)
	require.Len(t, out, 2)

	assert.Equal(t, "unknown command M999", out[0].Message)
	assert.Equal(t, protocol.DiagnosticSeverityError, out[0].Severity)
	assert.Equal(t, string(validate.UnknownCommand), out[0].Code)
	assert.Equal(t, uint32(1), out[0].Range.Start.Line)

	assert.Equal(t, protocol.DiagnosticSeverityWarning, out[1].Severity)
	assert.Equal(t, uint32(0), out[1].Range.Start.Line)
}

func TestToProtocolSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, toProtocolSeverity(validate.Error))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, toProtocolSeverity(validate.Warning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, toProtocolSeverity(validate.Info))
}
