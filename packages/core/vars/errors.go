package vars

import "fmt"

// UnresolvedVariableError is raised at substitution time for a ${name}
// token with no value in scope. It fails the current test/iteration only.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable ${%s}", e.Name)
}

// ConstraintError marks a produced value violating its declared
// constraints (pattern, noneOf, anyOf).
type ConstraintError struct {
	Name   string
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Name, e.Reason)
}

// FormatError marks a strftime pattern that cannot be applied: an unknown
// directive, or a base value the pattern cannot format.
type FormatError struct {
	Pattern string
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %q: %s", e.Pattern, e.Reason)
}
