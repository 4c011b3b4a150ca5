package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorTotals(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{TestID: "a", Status: StatusPassed})
	agg.Record(Outcome{TestID: "b", Status: StatusFailed})
	agg.Record(Outcome{TestID: "b", Iteration: 1, Status: StatusFailed})
	agg.Record(Outcome{TestID: "c", Status: StatusSkipped})

	totals := agg.Totals()
	assert.Equal(t, 1, totals.Passed)
	assert.Equal(t, 2, totals.Failed)
	assert.Equal(t, 1, totals.Skipped)
}

func TestExitStatus(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Status: StatusPassed})
	assert.Equal(t, ExitOK, agg.ExitStatus())

	agg.Record(Outcome{Status: StatusFailed})
	assert.Equal(t, ExitTestFailures, agg.ExitStatus())

	// A fatal pre-execution error outranks recorded failures.
	agg.MarkFatal()
	assert.Equal(t, ExitDefinitionErr, agg.ExitStatus())
}

func TestAggregatorConcurrentRecord(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(Outcome{Status: StatusPassed})
		}()
	}
	wg.Wait()

	require.Len(t, agg.Outcomes(), 50)
	assert.Equal(t, 50, agg.Totals().Passed)
}

func TestSessionIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewAggregator().ID(), NewAggregator().ID())
}
