package model

import "fmt"

// DefinitionError marks a malformed test document. It is non-fatal to a
// session: the offending test is skipped and the run continues.
type DefinitionError struct {
	Test   string // test name or source label, best effort
	Field  string // offending field, if known
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid test definition %q: field %q: %s", e.Test, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid test definition %q: %s", e.Test, e.Reason)
}

func definitionErr(test, field, format string, args ...any) *DefinitionError {
	return &DefinitionError{Test: test, Field: field, Reason: fmt.Sprintf(format, args...)}
}
