package validate

import (
	"fmt"
	"strings"
)

// FailureKind discriminates validation failure categories.
type FailureKind string

const (
	StatusMismatch        FailureKind = "status_mismatch"
	BodyMismatch          FailureKind = "body_mismatch"
	SchemaViolation       FailureKind = "schema_violation"
	InvalidJSONBody       FailureKind = "invalid_json_body"
	TransportError        FailureKind = "transport_error"
	CompareTransportError FailureKind = "compare_transport_error"
)

// Violation is one schema check finding, located by dotted path.
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// Failure is one recorded validation failure. Schema failures carry the
// full violation list; the others carry a Detail line.
type Failure struct {
	Kind       FailureKind
	Detail     string
	Violations []Violation
}

func (f Failure) Error() string {
	switch f.Kind {
	case SchemaViolation:
		parts := make([]string, len(f.Violations))
		for i, v := range f.Violations {
			parts[i] = v.String()
		}
		return fmt.Sprintf("schema violations: %s", strings.Join(parts, "; "))
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
	}
}
