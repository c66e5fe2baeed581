package lspserver

import (
	"strings"
	"unicode/utf16"

	"go.lsp.dev/protocol"
)

// byteOffsetForPosition converts an LSP Position (0-based line, 0-based
// UTF-16 code unit column) into an absolute byte offset into text, per
// §6's mapping requirement.
func byteOffsetForPosition(text string, pos protocol.Position) int {
	lineStart := 0
	line := uint32(0)
	for line < pos.Line {
		idx := strings.IndexByte(text[lineStart:], '\n')
		if idx < 0 {
			return len(text)
		}
		lineStart += idx + 1
		line++
	}

	lineEnd := len(text)
	if idx := strings.IndexByte(text[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	lineText := text[lineStart:lineEnd]

	units := utf16.Encode([]rune(lineText))
	target := int(pos.Character)
	if target > len(units) {
		target = len(units)
	}

	// Walk runes, counting UTF-16 units consumed, to recover the byte
	// offset of the target unit within lineText.
	consumed := 0
	byteOff := 0
	for _, r := range lineText {
		if consumed >= target {
			break
		}
		width := 1
		if r > 0xFFFF {
			width = 2
		}
		consumed += width
		byteOff += utf16RuneByteLen(r)
	}
	return lineStart + byteOff
}

func utf16RuneByteLen(r rune) int {
	return len(string(r))
}

// positionForByteOffset converts an absolute byte offset in text into
// an LSP Position using UTF-16 code units for the character column.
func positionForByteOffset(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	lineStart := 0
	line := uint32(0)
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			lineStart = i + 1
			line++
		}
	}
	units := utf16.Encode([]rune(text[lineStart:offset]))
	return protocol.Position{Line: line, Character: uint32(len(units))}
}

// rangeForSpan converts a byte-offset [start, end) pair into an LSP Range.
func rangeForSpan(text string, startByte, endByte int) protocol.Range {
	return protocol.Range{
		Start: positionForByteOffset(text, startByte),
		End:   positionForByteOffset(text, endByte),
	}
}
