package validate

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

// Expectation is the declared response check set for one stage. Every
// check is optional; a zero Expectation passes any response.
type Expectation struct {
	Status int
	Body   any
	Ignore []string
	Schema *model.SchemaNode
	Strict bool
}

// FromResponse builds the check set from a parsed response block.
func FromResponse(r *model.Response) Expectation {
	if r == nil {
		return Expectation{}
	}
	return Expectation{
		Status: r.Status,
		Body:   r.Body,
		Ignore: r.Ignore,
		Schema: r.BodySchema,
		Strict: r.Strict,
	}
}

// Check validates a response against the expectation. A body that is not
// valid JSON is a failure only when a body or schema check was requested.
func Check(exp Expectation, status int, body []byte) []Failure {
	var failures []Failure

	if exp.Status != 0 && status != exp.Status {
		failures = append(failures, Failure{
			Kind:   StatusMismatch,
			Detail: fmt.Sprintf("expected status %d, got %d", exp.Status, status),
		})
	}

	if exp.Body == nil && exp.Schema == nil {
		return failures
	}

	actual, err := DecodeBody(body)
	if err != nil {
		failures = append(failures, Failure{
			Kind:   InvalidJSONBody,
			Detail: fmt.Sprintf("response body is not valid JSON: %v", err),
		})
		return failures
	}

	if exp.Body != nil {
		expected := Prune(exp.Body, exp.Ignore)
		pruned := Prune(actual, exp.Ignore)
		if lines := Diff(expected, pruned, exp.Strict); len(lines) > 0 {
			failures = append(failures, Failure{
				Kind:   BodyMismatch,
				Detail: strings.Join(lines, "\n"),
			})
		}
	}

	if exp.Schema != nil {
		if violations := CheckSchema(exp.Schema, actual); len(violations) > 0 {
			failures = append(failures, Failure{Kind: SchemaViolation, Violations: violations})
		}
	}

	return failures
}

// CheckCompare validates two endpoints against each other: statuses must
// match and the bodies, pruned by the shared ignore set, must be equal.
func CheckCompare(primaryStatus int, primaryBody []byte, compareStatus int, compareBody []byte, ignore []string, strict bool) []Failure {
	var failures []Failure

	if primaryStatus != compareStatus {
		failures = append(failures, Failure{
			Kind:   StatusMismatch,
			Detail: fmt.Sprintf("primary responded %d, compare responded %d", primaryStatus, compareStatus),
		})
	}

	primary, err := DecodeBody(primaryBody)
	if err != nil {
		failures = append(failures, Failure{
			Kind:   InvalidJSONBody,
			Detail: fmt.Sprintf("primary body is not valid JSON: %v", err),
		})
		return failures
	}
	secondary, err := DecodeBody(compareBody)
	if err != nil {
		failures = append(failures, Failure{
			Kind:   InvalidJSONBody,
			Detail: fmt.Sprintf("compare body is not valid JSON: %v", err),
		})
		return failures
	}

	left := Prune(primary, ignore)
	right := Prune(secondary, ignore)
	if lines := Diff(left, right, strict); len(lines) > 0 {
		failures = append(failures, Failure{
			Kind:   BodyMismatch,
			Detail: strings.Join(lines, "\n"),
		})
	}
	return failures
}
