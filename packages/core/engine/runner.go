package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/flowspec/packages/capture"
	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
	"github.com/abdul-hamid-achik/flowspec/packages/core/vars"
	"github.com/abdul-hamid-achik/flowspec/packages/session"
	"github.com/abdul-hamid-achik/flowspec/packages/validate"
)

func (e *Engine) recordSkip(agg *session.Aggregator, td *model.TestDefinition, reason string) {
	e.setOutcome(td.ID, session.StatusSkipped)
	outcome := session.Outcome{
		TestID:   td.ID,
		TestName: td.Label(),
		Status:   session.StatusSkipped,
		Detail:   reason,
	}
	agg.Record(outcome)
	session.Publish(func() { e.sink.TestCompleted(agg.ID(), outcome) })
}

// runTest executes every iteration of one test sequentially. Iterations
// are isolated: extracted state and cleanup decisions never carry across
// iteration boundaries.
func (e *Engine) runTest(ctx context.Context, agg *session.Aggregator, td *model.TestDefinition) {
	if td.Disabled {
		e.recordSkip(agg, td, "disabled")
		return
	}
	if td.Requires != "" {
		if status, ok := e.outcomeOf(td.Requires); ok && status != session.StatusPassed {
			e.recordSkip(agg, td, fmt.Sprintf("required test %q did not pass", td.Requires))
			return
		}
	}

	producer := vars.NewProducer(uint64(e.seed), e.clock)
	for i := 0; i < td.Iterate; i++ {
		if ctx.Err() != nil {
			// A skip record only when nothing ran; completed iterations
			// already speak for the test.
			if i == 0 {
				e.recordSkip(agg, td, "canceled")
			}
			return
		}

		outcome := e.runIteration(ctx, td, producer, i)
		e.setOutcome(td.ID, outcome.Status)
		agg.Record(outcome)
		session.Publish(func() { e.sink.TestCompleted(agg.ID(), outcome) })
	}
}

func (e *Engine) runIteration(ctx context.Context, td *model.TestDefinition, producer *vars.Producer, iteration int) (outcome session.Outcome) {
	outcome = session.Outcome{
		TestID:    td.ID,
		TestName:  td.Label(),
		Iteration: iteration,
	}
	start := time.Now()
	defer func() { outcome.Duration = time.Since(start) }()

	scope, err := e.iterationScope(td, producer, iteration)
	if err != nil {
		outcome.Status = session.StatusFailed
		outcome.Detail = err.Error()
		return outcome
	}

	failed := false

	if td.Setup != nil {
		setupFailures, err := e.runRequestCheck(ctx, scope, &td.Setup.Request, td.Setup.Response, &outcome)
		if err != nil || len(setupFailures) > 0 {
			outcome.SetupFailed = true
			failed = true
			if err != nil {
				outcome.Detail = err.Error()
			} else {
				outcome.Stages = append(outcome.Stages, session.StageResult{Name: "setup", Index: -1, Failures: setupFailures})
			}
		}
	}

	if !failed {
		for i := range td.Stages {
			stage := &td.Stages[i]
			result, err := e.runStage(ctx, scope, stage, producer, iteration, &outcome)
			if err != nil {
				outcome.Detail = err.Error()
				failed = true
				break
			}
			outcome.Stages = append(outcome.Stages, result)
			if !result.Passed() {
				// Fail fast: remaining stages of this iteration are skipped.
				failed = true
				break
			}
		}
	}

	e.runCleanup(ctx, scope, td, failed, &outcome)

	if failed {
		outcome.Status = session.StatusFailed
	} else {
		outcome.Status = session.StatusPassed
	}
	return outcome
}

// iterationScope layers config globals, environment-matched globals,
// secrets, cross-test extracted values and the test's own declarations.
func (e *Engine) iterationScope(td *model.TestDefinition, producer *vars.Producer, iteration int) (*vars.Scope, error) {
	env := td.Environment
	if env == "" {
		env = e.cfg.Environment
	}

	root := vars.NewScope()
	for name, value := range e.cfg.GlobalValues(env) {
		root.Set(name, value)
	}
	for name, value := range e.cfg.Secrets {
		root.Set(name, value)
	}
	for name, value := range e.snapshotExtracted() {
		root.Set(name, value)
	}

	scope := root.Child()
	if err := produceInto(scope, td.Variables, producer, iteration); err != nil {
		return nil, err
	}
	return scope, nil
}

// produceInto resolves declarations in order, so a later variable may
// reference an earlier one.
func produceInto(scope *vars.Scope, decls []model.Variable, producer *vars.Producer, iteration int) error {
	for i := range decls {
		raw, err := producer.Produce(&decls[i], iteration)
		if err != nil {
			return err
		}
		value, err := scope.Expand(raw)
		if err != nil {
			return err
		}
		scope.Set(decls[i].Name, value)
	}
	return nil
}

func (e *Engine) runStage(ctx context.Context, scope *vars.Scope, stage *model.Stage, producer *vars.Producer, iteration int, outcome *session.Outcome) (result session.StageResult, err error) {
	result = session.StageResult{Name: stage.Name, Index: len(outcome.Stages)}
	stageStart := time.Now()
	defer func() { result.Duration = time.Since(stageStart) }()

	stageScope := scope.Child()
	if err := produceInto(stageScope, stage.Variables, producer, iteration); err != nil {
		return result, err
	}

	if d := stage.Delay(); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	primary, err := e.dispatch(ctx, stageScope, &stage.Request)
	if err != nil {
		result.Failures = append(result.Failures, transportFailure(err))
		return result, nil
	}

	result.Failures = append(result.Failures, validate.Check(validate.FromResponse(stage.Response), primary.StatusCode, primary.Body)...)

	if stage.Compare != nil {
		compareReq := MergeCompare(&stage.Request, stage.Compare)
		secondary, err := e.dispatch(ctx, stageScope, compareReq)
		if err != nil {
			result.Failures = append(result.Failures, validate.Failure{
				Kind:   validate.CompareTransportError,
				Detail: err.Error(),
			})
		} else {
			var ignore []string
			strict := false
			if stage.Response != nil {
				ignore = stage.Response.Ignore
				strict = stage.Response.Strict
			}
			result.Failures = append(result.Failures, validate.CheckCompare(primary.StatusCode, primary.Body, secondary.StatusCode, secondary.Body, ignore, strict)...)
		}
	}

	if result.Passed() && stage.Response != nil && len(stage.Response.Extract) > 0 {
		values, missed := capture.Extract(primary.Body, stage.Response.Extract)
		outcome.MissedExtract = append(outcome.MissedExtract, missed...)
		for name, value := range values {
			// Visible to later stages of this iteration and, via the
			// engine store, to dependent tests.
			scope.Set(name, value)
		}
		e.setExtracted(values)
	}

	return result, nil
}

// runRequestCheck dispatches a bare request/response pair (setup and
// cleanup requests).
func (e *Engine) runRequestCheck(ctx context.Context, scope *vars.Scope, req *model.Request, expected *model.Response, outcome *session.Outcome) ([]validate.Failure, error) {
	resp, err := e.dispatch(ctx, scope, req)
	if err != nil {
		return []validate.Failure{transportFailure(err)}, nil
	}

	failures := validate.Check(validate.FromResponse(expected), resp.StatusCode, resp.Body)
	if len(failures) == 0 && expected != nil && len(expected.Extract) > 0 {
		values, missed := capture.Extract(resp.Body, expected.Extract)
		outcome.MissedExtract = append(outcome.MissedExtract, missed...)
		for name, value := range values {
			scope.Set(name, value)
		}
		e.setExtracted(values)
	}
	return failures, nil
}

// runCleanup picks the conditional request by outcome, then always runs
// the unconditional one last. Cleanup failures are recorded but never
// overturn the decided status. Cancellation does not stop cleanup.
func (e *Engine) runCleanup(ctx context.Context, scope *vars.Scope, td *model.TestDefinition, failed bool, outcome *session.Outcome) {
	cleanupCtx := context.WithoutCancel(ctx)

	conditional := td.Cleanup.OnSuccess
	if failed {
		conditional = td.Cleanup.OnFailure
	}
	if conditional != nil {
		if _, err := e.dispatch(cleanupCtx, scope, conditional); err != nil {
			outcome.CleanupFailed = true
		}
	}
	if td.Cleanup.Always != nil {
		if _, err := e.dispatch(cleanupCtx, scope, td.Cleanup.Always); err != nil {
			outcome.CleanupFailed = true
		}
	}
}

func transportFailure(err error) validate.Failure {
	return validate.Failure{Kind: validate.TransportError, Detail: err.Error()}
}
