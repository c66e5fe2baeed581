// Package gcode builds the line-level AST (Command, Parameter) out of
// the token stream produced by internal/token.
package gcode

import (
	"strconv"
	"strings"

	"github.com/graelo/gcode-language-server/internal/token"
)

// ValueKind is the type parseValue infers purely from a value's shape,
// independent of any flavor-declared ParameterDef.Type. It feeds the
// "derived value_typed" field the data model describes; the validation
// engine performs its own, definition-aware parse on top of ValueText.
type ValueKind uint8

const (
	Missing ValueKind = iota
	Int
	Float
	Bool
	String
)

// Value is the parsed form of a Parameter's ValueText.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// parseValue infers a Value from raw text with no knowledge of a
// declared parameter type: empty text is Missing, "true"/"false"
// (case-insensitive) is Bool, an integer literal is Int, a literal with
// a fractional part is Float, anything else (including an unterminated
// quoted string) is String.
func parseValue(text string) Value {
	if text == "" {
		return Value{Kind: Missing}
	}
	if strings.HasPrefix(text, `"`) {
		return Value{Kind: String, Str: strings.Trim(text, `"`)}
	}
	switch strings.ToLower(text) {
	case "true":
		return Value{Kind: Bool, Bool: true}
	case "false":
		return Value{Kind: Bool, Bool: false}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Value{Kind: Int, Int: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Value{Kind: Float, Float: f}
	}
	return Value{Kind: String, Str: text}
}

// Parameter is one letter-prefixed argument on a Command line.
type Parameter struct {
	Letter    byte // uppercase canonical letter, e.g. 'X'
	ValueText string
	Value     Value
	Span      token.Span
	Malformed bool
}

// Command is the parsed form of a single non-blank, non-comment-only
// line: a code (e.g. "G1", "M862.3") plus its parameters in source
// order.
type Command struct {
	Code       string
	Parameters []Parameter
	Span       token.Span
}

// ParameterByLetter returns the first Parameter with the given letter,
// which is what the validator and document service consult: duplicate
// letters are preserved in Parameters (§4.2) but the first occurrence
// is the one that participates in presence/type/constraint checks.
func (c Command) ParameterByLetter(letter byte) (Parameter, bool) {
	letter = upper(letter)
	for _, p := range c.Parameters {
		if p.Letter == letter {
			return p, true
		}
	}
	return Parameter{}, false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
