package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Exit codes mirror the CLI contract: distinct values for "ran with
// failures" and "could not run at all".
const (
	ExitOK            = 0
	ExitTestFailures  = 1
	ExitDefinitionErr = 2
	ExitConfigErr     = 3
)

// Totals summarizes a finished run.
type Totals struct {
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Aggregator collects outcomes from concurrently running tests.
type Aggregator struct {
	mu       sync.Mutex
	id       string
	started  time.Time
	outcomes []Outcome
	fatal    bool
}

// NewAggregator starts a session with a fresh run id.
func NewAggregator() *Aggregator {
	return &Aggregator{
		id:      uuid.NewString(),
		started: time.Now(),
	}
}

// ID returns the session run id.
func (a *Aggregator) ID() string { return a.id }

// Record appends one iteration outcome.
func (a *Aggregator) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
}

// MarkFatal flags the session as unable to run (resolution or
// configuration failure before execution).
func (a *Aggregator) MarkFatal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fatal = true
}

// Outcomes returns a snapshot of the recorded outcomes.
func (a *Aggregator) Outcomes() []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Outcome, len(a.outcomes))
	copy(out, a.outcomes)
	return out
}

// Totals computes the aggregate counts.
func (a *Aggregator) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := Totals{Duration: time.Since(a.started)}
	for i := range a.outcomes {
		switch a.outcomes[i].Status {
		case StatusPassed:
			t.Passed++
		case StatusFailed:
			t.Failed++
		case StatusSkipped:
			t.Skipped++
		}
	}
	return t
}

// ExitStatus maps the session to a process exit code: a fatal
// pre-execution error beats test failures.
func (a *Aggregator) ExitStatus() int {
	a.mu.Lock()
	fatal := a.fatal
	a.mu.Unlock()

	if fatal {
		return ExitDefinitionErr
	}
	if a.Totals().Failed > 0 {
		return ExitTestFailures
	}
	return ExitOK
}
