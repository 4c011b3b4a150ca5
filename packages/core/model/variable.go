package model

import (
	"fmt"
	"regexp"
	"strings"
)

// VariableType enumerates the value kinds the variable engine can produce.
type VariableType string

const (
	TypeInt      VariableType = "Int"
	TypeString   VariableType = "String"
	TypeDate     VariableType = "Date"
	TypeDatetime VariableType = "Datetime"
)

var variableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Modifier shifts a Date/Datetime base instant before formatting.
type Modifier struct {
	Operation string `yaml:"operation" json:"operation"` // add | subtract
	Value     int    `yaml:"value" json:"value"`
	Unit      string `yaml:"unit" json:"unit"` // days | weeks | months
}

// Range bounds generated Int values, inclusive on both ends.
type Range struct {
	Min int64 `yaml:"min" json:"min"`
	Max int64 `yaml:"max" json:"max"`
}

// Variable declares a named value: a literal, an ordered valueSet cycled by
// iteration index, or a generated value sampled under constraints.
type Variable struct {
	Name     string       `yaml:"name" json:"name"`
	Type     VariableType `yaml:"type" json:"type"`
	Value    any          `yaml:"value,omitempty" json:"value,omitempty"`
	ValueSet []any        `yaml:"valueSet,omitempty" json:"valueSet,omitempty"`

	Range     *Range   `yaml:"range,omitempty" json:"range,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	OneOf     []string `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	AnyOf     []string `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
	NoneOf    []string `yaml:"noneOf,omitempty" json:"noneOf,omitempty"`
	MinLength int      `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength int      `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`

	Modifier *Modifier `yaml:"modifier,omitempty" json:"modifier,omitempty"`
	Format   string    `yaml:"format,omitempty" json:"format,omitempty"`
}

// validate runs the definition-time checks: name syntax, type, nonempty
// valueSet, well-formed modifier and pattern. Violations here never reach
// execution time.
func (v *Variable) validate(test string) error {
	if !variableNamePattern.MatchString(v.Name) {
		return definitionErr(test, "variables", "variable name %q must be alphanumeric, hyphen or underscore", v.Name)
	}

	switch v.Type {
	case TypeInt, TypeString, TypeDate, TypeDatetime:
	case "":
		v.Type = TypeString
	default:
		return definitionErr(test, "variables", "variable %q has unknown type %q", v.Name, v.Type)
	}

	if v.ValueSet != nil && len(v.ValueSet) == 0 {
		return definitionErr(test, "variables", "variable %q declares an empty valueSet", v.Name)
	}
	if v.Value != nil && len(v.ValueSet) > 0 {
		return definitionErr(test, "variables", "variable %q declares both value and valueSet", v.Name)
	}

	if v.Range != nil && v.Range.Min > v.Range.Max {
		return definitionErr(test, "variables", "variable %q range min %d exceeds max %d", v.Name, v.Range.Min, v.Range.Max)
	}

	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return definitionErr(test, "variables", "variable %q pattern: %v", v.Name, err)
		}
	}

	if v.MinLength < 0 || v.MaxLength < 0 || (v.MaxLength > 0 && v.MinLength > v.MaxLength) {
		return definitionErr(test, "variables", "variable %q has inconsistent length bounds", v.Name)
	}

	if m := v.Modifier; m != nil {
		op := strings.ToLower(m.Operation)
		if op != "add" && op != "subtract" {
			return definitionErr(test, "variables", "variable %q modifier operation %q is not add/subtract", v.Name, m.Operation)
		}
		unit := strings.ToLower(m.Unit)
		if unit != "days" && unit != "weeks" && unit != "months" {
			return definitionErr(test, "variables", "variable %q modifier unit %q is not days/weeks/months", v.Name, m.Unit)
		}
		if m.Value < 0 {
			return definitionErr(test, "variables", "variable %q modifier value must be non-negative", v.Name)
		}
		if v.Type != TypeDate && v.Type != TypeDatetime {
			return definitionErr(test, "variables", "variable %q modifier requires a Date or Datetime type", v.Name)
		}
	}

	return nil
}

// ConstraintFingerprint returns a stable description of the generation
// constraints. The variable engine folds it into its seed so a value is
// reproducible for a given iteration within one session run.
func (v *Variable) ConstraintFingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%s", v.Type)
	if v.Range != nil {
		fmt.Fprintf(&b, ";r=%d..%d", v.Range.Min, v.Range.Max)
	}
	if v.Pattern != "" {
		fmt.Fprintf(&b, ";p=%s", v.Pattern)
	}
	if len(v.OneOf) > 0 {
		fmt.Fprintf(&b, ";one=%s", strings.Join(v.OneOf, ","))
	}
	if len(v.AnyOf) > 0 {
		fmt.Fprintf(&b, ";any=%s", strings.Join(v.AnyOf, ","))
	}
	if len(v.NoneOf) > 0 {
		fmt.Fprintf(&b, ";none=%s", strings.Join(v.NoneOf, ","))
	}
	if v.MinLength > 0 || v.MaxLength > 0 {
		fmt.Fprintf(&b, ";len=%d..%d", v.MinLength, v.MaxLength)
	}
	return b.String()
}
