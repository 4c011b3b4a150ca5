package session

// Sink consumes session summaries. Implementations must never block the
// run; Publish dispatches on a goroutine and drops errors.
type Sink interface {
	SessionStarted(sessionID string, testCount int)
	TestCompleted(sessionID string, outcome Outcome)
	SessionCompleted(sessionID string, totals Totals)
}

// NopSink is the default, discarding every event.
type NopSink struct{}

func (NopSink) SessionStarted(string, int)        {}
func (NopSink) TestCompleted(string, Outcome)     {}
func (NopSink) SessionCompleted(string, Totals)   {}

// Publish runs fn asynchronously, absorbing panics so a misbehaving sink
// cannot fail the run.
func Publish(fn func()) {
	go func() {
		defer func() { _ = recover() }()
		fn()
	}()
}
