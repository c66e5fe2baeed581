// Package validate implements the §4.5 validation engine: the ordered
// sequence of checks run per command against the active flavor.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/gcode"
	"github.com/graelo/gcode-language-server/internal/token"
)

// Severity is the diagnostic's level, matching the taxonomy in §7.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Info
)

// Kind names which check produced a Diagnostic.
type Kind string

const (
	UnknownCommand      Kind = "UnknownCommand"
	UnknownParameter    Kind = "UnknownParameter"
	MissingRequired     Kind = "MissingRequired"
	InvalidType         Kind = "InvalidType"
	ConstraintViolation Kind = "ConstraintViolation"
	ConstraintError     Kind = "ConstraintError"
)

// Diagnostic is one validation finding, anchored to a source range.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Span     token.Span
}

// ValidateDocument parses text and validates every command against fl,
// returning diagnostics in source order. A nil fl means the document is
// in degraded mode (§4.4): no UnknownCommand diagnostics are produced,
// but nothing else is checked either, since there is no schema to
// check against.
func ValidateDocument(text string, fl *flavor.Flavor) []Diagnostic {
	var diags []Diagnostic
	for _, cmd := range gcode.ParseText(text) {
		diags = append(diags, ValidateCommand(cmd, fl)...)
	}
	return diags
}

// ValidateCommand runs the six ordered checks from §4.5 against a
// single parsed command.
func ValidateCommand(cmd gcode.Command, fl *flavor.Flavor) []Diagnostic {
	if fl == nil {
		return nil
	}

	def, ok := fl.GetCommand(cmd.Code)
	if !ok {
		return []Diagnostic{{
			Kind:     UnknownCommand,
			Severity: Warning,
			Message:  fmt.Sprintf("unknown command %q for flavor %q", cmd.Code, fl.Name),
			Span:     cmd.Span,
		}}
	}

	var diags []Diagnostic
	diags = append(diags, checkAliasConflicts(cmd, def)...)
	diags = append(diags, checkUnknownParameters(cmd, def)...)
	diags = append(diags, checkMissingRequired(cmd, def)...)
	diags = append(diags, checkTypesAndConstraints(cmd, def)...)
	diags = append(diags, checkCommandConstraints(cmd, def)...)
	return diags
}

// checkAliasConflicts resolves Design Notes §9's open question: a
// parameter given simultaneously under its canonical letter and one of
// its aliases is a conflict, not two independent occurrences.
func checkAliasConflicts(cmd gcode.Command, def flavor.CommandDef) []Diagnostic {
	var diags []Diagnostic
	for _, pdef := range def.Parameters {
		if len(pdef.Aliases) == 0 {
			continue
		}
		_, hasCanonical := findByExactLetter(cmd, pdef.Name)
		for _, alias := range pdef.Aliases {
			aliasParam, hasAlias := findByExactLetter(cmd, alias)
			if hasCanonical && hasAlias {
				diags = append(diags, Diagnostic{
					Kind:     ConstraintViolation,
					Severity: Error,
					Message:  fmt.Sprintf("parameter %q given under both its name and alias %q", pdef.Name, alias),
					Span:     aliasParam.Span,
				})
			}
		}
	}
	return diags
}

func findByExactLetter(cmd gcode.Command, name string) (gcode.Parameter, bool) {
	if len(name) != 1 {
		return gcode.Parameter{}, false
	}
	return cmd.ParameterByLetter(name[0])
}

func checkUnknownParameters(cmd gcode.Command, def flavor.CommandDef) []Diagnostic {
	var diags []Diagnostic
	for _, p := range cmd.Parameters {
		if _, ok := def.FindParameter(string(p.Letter)); !ok {
			diags = append(diags, Diagnostic{
				Kind:     UnknownParameter,
				Severity: Warning,
				Message:  fmt.Sprintf("%s does not accept parameter %q", cmd.Code, string(p.Letter)),
				Span:     p.Span,
			})
		}
	}
	return diags
}

func checkMissingRequired(cmd gcode.Command, def flavor.CommandDef) []Diagnostic {
	var diags []Diagnostic
	for _, pdef := range def.RequiredParameters() {
		if _, ok := findAnySpelling(cmd, pdef); !ok {
			diags = append(diags, Diagnostic{
				Kind:     MissingRequired,
				Severity: Error,
				Message:  fmt.Sprintf("%s is missing required parameter %q", cmd.Code, pdef.Name),
				Span:     cmd.Span,
			})
		}
	}
	return diags
}

func findAnySpelling(cmd gcode.Command, pdef flavor.ParameterDef) (gcode.Parameter, bool) {
	if p, ok := findByExactLetter(cmd, pdef.Name); ok {
		return p, true
	}
	for _, alias := range pdef.Aliases {
		if p, ok := findByExactLetter(cmd, alias); ok {
			return p, true
		}
	}
	return gcode.Parameter{}, false
}

func checkTypesAndConstraints(cmd gcode.Command, def flavor.CommandDef) []Diagnostic {
	var diags []Diagnostic
	for _, p := range cmd.Parameters {
		pdef, ok := def.FindParameter(string(p.Letter))
		if !ok {
			continue // already reported as UnknownParameter
		}
		if !strings.EqualFold(string(p.Letter), pdef.Name) {
			if _, hasCanonical := findByExactLetter(cmd, pdef.Name); hasCanonical {
				continue // alias duplicate, already reported by checkAliasConflicts
			}
		}
		if !typeMatches(p.ValueText, pdef.Type) {
			diags = append(diags, Diagnostic{
				Kind:     InvalidType,
				Severity: Error,
				Message:  fmt.Sprintf("parameter %q expects %s, got %q", string(p.Letter), pdef.Type, p.ValueText),
				Span:     p.Span,
			})
			continue
		}
		if pdef.Constraints != nil {
			if d, ok := checkValueConstraints(p, pdef); ok {
				diags = append(diags, d)
			}
		}
	}
	return diags
}

func typeMatches(text string, t flavor.ParamType) bool {
	switch t {
	case flavor.TypeInt:
		_, err := strconv.ParseInt(text, 10, 64)
		return err == nil
	case flavor.TypeFloat:
		_, err := strconv.ParseFloat(text, 64)
		return err == nil
	case flavor.TypeBool:
		return text == ""
	case flavor.TypeString:
		return true
	default:
		return true
	}
}

func checkValueConstraints(p gcode.Parameter, pdef flavor.ParameterDef) (Diagnostic, bool) {
	c := pdef.Constraints

	if c.Min != nil || c.Max != nil {
		if v, err := strconv.ParseFloat(p.ValueText, 64); err == nil {
			if c.Min != nil && v < *c.Min {
				return constraintViolation(p, pdef, fmt.Sprintf("%q must be >= %v, got %v", pdef.Name, *c.Min, v)), true
			}
			if c.Max != nil && v > *c.Max {
				return constraintViolation(p, pdef, fmt.Sprintf("%q must be <= %v, got %v", pdef.Name, *c.Max, v)), true
			}
		}
	}

	if len(c.Enum) > 0 {
		matched := false
		for _, allowed := range c.Enum {
			if allowed == p.ValueText {
				matched = true
				break
			}
		}
		if !matched {
			return constraintViolation(p, pdef, fmt.Sprintf("%q must be one of %v, got %q", pdef.Name, c.Enum, p.ValueText)), true
		}
	}

	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err == nil && !re.MatchString(p.ValueText) {
			return constraintViolation(p, pdef, fmt.Sprintf("%q does not match pattern %q", pdef.Name, c.Pattern)), true
		}
	}

	return Diagnostic{}, false
}

func constraintViolation(p gcode.Parameter, pdef flavor.ParameterDef, msg string) Diagnostic {
	return Diagnostic{Kind: ConstraintViolation, Severity: Error, Message: msg, Span: p.Span}
}

func checkCommandConstraints(cmd gcode.Command, def flavor.CommandDef) []Diagnostic {
	var diags []Diagnostic
	for _, c := range def.Constraints {
		switch c.Kind {
		case flavor.RequireAnyOf:
			if !anyPresent(cmd, c.Parameters) {
				diags = append(diags, constraintError(cmd, c, defaultRequireAnyMsg(cmd.Code, c.Parameters)))
			}
		case flavor.RequireAllOf:
			missing := missingOf(cmd, c.Parameters)
			if len(missing) > 0 {
				diags = append(diags, constraintError(cmd, c, defaultRequireAllMsg(cmd.Code, missing)))
			}
		case flavor.MutuallyExclusive:
			present := presentOf(cmd, c.Parameters)
			if len(present) >= 2 {
				diags = append(diags, constraintError(cmd, c, defaultMutexMsg(cmd.Code, present)))
			}
		case flavor.ConditionalRequire:
			if _, ok := findByExactLetter(cmd, c.IfParameter); ok {
				if !anyPresent(cmd, c.ThenRequireAnyOf) {
					diags = append(diags, constraintError(cmd, c, defaultConditionalMsg(cmd.Code, c.IfParameter, c.ThenRequireAnyOf)))
				}
			}
		}
	}
	return diags
}

func anyPresent(cmd gcode.Command, letters []string) bool {
	for _, l := range letters {
		if _, ok := findByExactLetter(cmd, l); ok {
			return true
		}
	}
	return false
}

func missingOf(cmd gcode.Command, letters []string) []string {
	var missing []string
	for _, l := range letters {
		if _, ok := findByExactLetter(cmd, l); !ok {
			missing = append(missing, l)
		}
	}
	return missing
}

func presentOf(cmd gcode.Command, letters []string) []string {
	var present []string
	for _, l := range letters {
		if _, ok := findByExactLetter(cmd, l); ok {
			present = append(present, l)
		}
	}
	return present
}

func constraintError(cmd gcode.Command, c flavor.ParameterConstraint, defaultMsg string) Diagnostic {
	msg := c.Message
	if msg == "" {
		msg = defaultMsg
	}
	return Diagnostic{Kind: ConstraintError, Severity: Error, Message: msg, Span: cmd.Span}
}

func defaultRequireAnyMsg(code string, params []string) string {
	return fmt.Sprintf("%s requires at least one of %s", code, strings.Join(params, ", "))
}

func defaultRequireAllMsg(code string, missing []string) string {
	return fmt.Sprintf("%s is missing required parameters %s", code, strings.Join(missing, ", "))
}

func defaultMutexMsg(code string, present []string) string {
	return fmt.Sprintf("%s parameters %s are mutually exclusive", code, strings.Join(present, ", "))
}

func defaultConditionalMsg(code, ifParam string, thenAny []string) string {
	return fmt.Sprintf("%s: when %s is given, at least one of %s is required", code, ifParam, strings.Join(thenAny, ", "))
}
