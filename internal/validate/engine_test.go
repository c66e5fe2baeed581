package validate

import (
	"testing"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/gcode"
)

func testFlavor() *flavor.Flavor {
	min0 := 0.0
	return &flavor.Flavor{
		Name: "test",
		Commands: map[string]flavor.CommandDef{
			"G1": {
				Name: "G1",
				Parameters: []flavor.ParameterDef{
					{Name: "X", Type: flavor.TypeFloat},
					{Name: "Y", Type: flavor.TypeFloat},
					{Name: "Z", Type: flavor.TypeFloat},
					{Name: "E", Type: flavor.TypeFloat},
					{Name: "F", Type: flavor.TypeFloat, Constraints: &flavor.Constraints{Min: &min0}},
				},
				Constraints: []flavor.ParameterConstraint{
					{Kind: flavor.RequireAnyOf, Parameters: []string{"X", "Y", "Z", "E"}},
				},
			},
			"M104": {
				Name: "M104",
				Parameters: []flavor.ParameterDef{
					{Name: "S", Type: flavor.TypeInt, Required: true},
				},
			},
			"M205": {
				Name: "M205",
				Parameters: []flavor.ParameterDef{
					{Name: "X", Type: flavor.TypeFloat, Aliases: []string{"A"}},
				},
			},
		},
	}
}

func parseOne(t *testing.T, line string) gcode.Command {
	t.Helper()
	cmds := gcode.ParseText(line + "\n")
	if len(cmds) != 1 {
		t.Fatalf("expected exactly one command from %q, got %d", line, len(cmds))
	}
	return cmds[0]
}

func TestValidateUnknownCommand(t *testing.T) {
	cmd := parseOne(t, "G999 X1")
	diags := ValidateCommand(cmd, testFlavor())
	if len(diags) != 1 || diags[0].Kind != UnknownCommand {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestValidateDegradedModeNoUnknownCommand(t *testing.T) {
	cmd := parseOne(t, "G999 X1")
	diags := ValidateCommand(cmd, nil)
	if len(diags) != 0 {
		t.Fatalf("degraded mode should produce no diagnostics, got %+v", diags)
	}
}

func TestValidateMovementConstraint(t *testing.T) {
	fl := testFlavor()

	diags := ValidateCommand(parseOne(t, "G1 F1500"), fl)
	if len(diags) != 1 || diags[0].Kind != ConstraintError {
		t.Fatalf("diags = %+v, want exactly one ConstraintError", diags)
	}

	diags = ValidateCommand(parseOne(t, "G1 X10"), fl)
	if len(diags) != 0 {
		t.Fatalf("diags = %+v, want none", diags)
	}
}

func TestValidateTypeError(t *testing.T) {
	fl := testFlavor()
	diags := ValidateCommand(parseOne(t, "M104 S20.5"), fl)
	if len(diags) != 1 || diags[0].Kind != InvalidType {
		t.Fatalf("diags = %+v, want exactly one InvalidType", diags)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	fl := testFlavor()
	diags := ValidateCommand(parseOne(t, "M104"), fl)
	if len(diags) != 1 || diags[0].Kind != MissingRequired {
		t.Fatalf("diags = %+v", diags)
	}
}

func TestValidateUnknownParameter(t *testing.T) {
	fl := testFlavor()
	diags := ValidateCommand(parseOne(t, "G1 X10 Q5"), fl)
	found := false
	for _, d := range diags {
		if d.Kind == UnknownParameter {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %+v, want an UnknownParameter", diags)
	}
}

func TestValidateAliasConflict(t *testing.T) {
	fl := testFlavor()
	diags := ValidateCommand(parseOne(t, "M205 X1 A2"), fl)
	found := false
	for _, d := range diags {
		if d.Kind == ConstraintViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("diags = %+v, want a ConstraintViolation for simultaneous alias/canonical spelling", diags)
	}
}

func TestValidationMonotonicityUnderIdentity(t *testing.T) {
	fl := testFlavor()
	cmd := parseOne(t, "G1 F1500 Q5")
	a := ValidateCommand(cmd, fl)
	b := ValidateCommand(cmd, fl)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic diagnostic count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Message != b[i].Message {
			t.Fatalf("non-deterministic diagnostics at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
