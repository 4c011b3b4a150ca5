// Package session aggregates per-test outcomes for one run: totals, exit
// status and the records reporting and telemetry consume.
package session

import (
	"time"

	"github.com/abdul-hamid-achik/flowspec/packages/validate"
)

// Status is the terminal state of one test iteration.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult records one executed stage of an iteration.
type StageResult struct {
	Name     string
	Index    int
	Duration time.Duration
	Failures []validate.Failure
}

// Passed reports whether the stage recorded no failures.
func (s *StageResult) Passed() bool {
	return len(s.Failures) == 0
}

// Outcome is one test iteration's record. CleanupFailed is informational:
// a failed unconditional cleanup never overturns Status.
type Outcome struct {
	TestID        string
	TestName      string
	Iteration     int
	Status        Status
	Duration      time.Duration
	Stages        []StageResult
	SetupFailed   bool
	CleanupFailed bool
	Detail        string // resolution/variable errors with no stage to carry them
	MissedExtract []string
}

// Failed reports whether this iteration counts against the run.
func (o *Outcome) Failed() bool {
	return o.Status == StatusFailed
}
