// Package flavor holds the in-memory schema of a G-code flavor
// (command table, parameter definitions, declarative constraints) and
// the registry that loads, merges, and live-reloads flavors from
// layered TOML sources.
package flavor

import "strings"

// ParamType is the declared type of a ParameterDef, as it appears
// (lowercase) in a flavor TOML document.
type ParamType string

const (
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeString ParamType = "string"
	TypeBool   ParamType = "bool"
)

// Constraints bounds the acceptable values of a single parameter.
type Constraints struct {
	Min     *float64 `toml:"min"`
	Max     *float64 `toml:"max"`
	Enum    []string `toml:"enum"`
	Pattern string   `toml:"pattern"`
}

// ParameterDef describes one letter-prefixed parameter a command
// accepts.
type ParameterDef struct {
	Name        string       `toml:"name"`
	Type        ParamType    `toml:"type"`
	Required    bool         `toml:"required"`
	Description string       `toml:"description"`
	Constraints *Constraints `toml:"constraints"`
	Default     string       `toml:"default"`
	Aliases     []string     `toml:"aliases"`
}

// matchesName reports whether candidate (a letter like "X" or a
// full name) names this parameter, by its canonical Name or one of
// its Aliases, case-insensitively.
func (p ParameterDef) matchesName(candidate string) bool {
	if strings.EqualFold(p.Name, candidate) {
		return true
	}
	for _, a := range p.Aliases {
		if strings.EqualFold(a, candidate) {
			return true
		}
	}
	return false
}

// ConstraintKind is the closed set of command-level declarative
// constraints; dispatch in the validator switches on this tag rather
// than on a type hierarchy, per Design Notes §9.
type ConstraintKind string

const (
	RequireAnyOf       ConstraintKind = "require_any_of"
	RequireAllOf       ConstraintKind = "require_all_of"
	MutuallyExclusive  ConstraintKind = "mutually_exclusive"
	ConditionalRequire ConstraintKind = "conditional_require"
)

// ParameterConstraint is one command-level cross-parameter rule.
type ParameterConstraint struct {
	Kind       ConstraintKind `toml:"type"`
	Parameters []string       `toml:"parameters"`
	Message    string         `toml:"message"`

	// IfParameter and ThenRequireAnyOf are only meaningful when Kind is
	// ConditionalRequire.
	IfParameter      string   `toml:"if_parameter"`
	ThenRequireAnyOf []string `toml:"then_require_any_of"`
}

// CommandDef is the schema for one command code (e.g. "G1").
type CommandDef struct {
	Name             string                `toml:"name"`
	DescriptionShort string                `toml:"description_short"`
	DescriptionLong  string                `toml:"description_long"`
	Parameters       []ParameterDef        `toml:"parameters"`
	Constraints      []ParameterConstraint `toml:"constraints"`
}

// FindParameter returns the ParameterDef matching letterOrName by
// canonical name or alias.
func (c CommandDef) FindParameter(letterOrName string) (ParameterDef, bool) {
	for _, p := range c.Parameters {
		if p.matchesName(letterOrName) {
			return p, true
		}
	}
	return ParameterDef{}, false
}

// RequiredParameters returns the subset of Parameters with Required set.
func (c CommandDef) RequiredParameters() []ParameterDef {
	var out []ParameterDef
	for _, p := range c.Parameters {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Description returns the long description if useLong is true and one
// is present, otherwise the short description, matching §4.7's hover
// contract.
func (c CommandDef) Description(useLong bool) string {
	if useLong && c.DescriptionLong != "" {
		return c.DescriptionLong
	}
	if c.DescriptionShort != "" {
		return c.DescriptionShort
	}
	return c.DescriptionLong
}

// Meta is the [flavor] table of a flavor document.
type Meta struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// file is the on-disk shape of one flavor TOML document or fragment.
type file struct {
	Flavor   Meta         `toml:"flavor"`
	Commands []CommandDef `toml:"commands"`
}

// Flavor is the merged, queryable in-memory schema for one named
// flavor. Commands is keyed by uppercase command code.
type Flavor struct {
	Name        string
	Version     string
	Description string
	Commands    map[string]CommandDef
}

// GetCommand looks up a command by code, case-insensitively.
func (f *Flavor) GetCommand(code string) (CommandDef, bool) {
	if f == nil {
		return CommandDef{}, false
	}
	cmd, ok := f.Commands[strings.ToUpper(code)]
	return cmd, ok
}

func fromFile(ff file) Flavor {
	fl := Flavor{
		Name:        ff.Flavor.Name,
		Version:     ff.Flavor.Version,
		Description: ff.Flavor.Description,
		Commands:    make(map[string]CommandDef, len(ff.Commands)),
	}
	for _, cmd := range ff.Commands {
		fl.Commands[strings.ToUpper(cmd.Name)] = cmd
	}
	return fl
}
