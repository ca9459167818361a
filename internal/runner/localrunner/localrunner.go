// Package localrunner implements job.JobRunner by executing LocalFunction
// job functions in-process, on the scheduler's cooperative executor. It is the runner used by the
// demo and by tests that don't need to exercise the HTTP contract.
package localrunner

import (
	"context"
	"fmt"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

// Runner runs LocalFunction job functions on the scheduler's cooperative
// executor, appending RUN_REQUESTED immediately and a terminal event once
// the function returns.
type Runner struct {
	append eventlog.AppendFunc
	submit eventlog.SubmitFunc
}

// New returns a Runner that appends state transitions via append and runs
// job function bodies via submit, so they stay serialized with every other
// subscriber invocation and action execution on the scheduler's executor.
func New(append eventlog.AppendFunc, submit eventlog.SubmitFunc) *Runner {
	return &Runner{append: append, submit: submit}
}

// Name implements job.JobRunner.
func (r *Runner) Name() string { return "local" }

// Supports implements job.JobRunner: only LocalFunction is supported.
func (r *Runner) Supports(fn job.RunnerFunction) bool {
	_, ok := fn.(job.LocalFunction)
	return ok
}

// RequestRun implements job.JobRunner. RequestRun appends RUN_REQUESTED
// synchronously, then submits the function body's execution as a
// follow-up task on the scheduler's executor, so it runs serialized with
// every other subscriber invocation and action execution rather than on
// an independent goroutine.
func (r *Runner) RequestRun(ctx context.Context, topic eventlog.TopicName, requestID string, fn job.RunnerFunction, args map[string]any) error {
	lf, ok := fn.(job.LocalFunction)
	if !ok {
		return fmt.Errorf("local runner: unsupported function type %T", fn)
	}

	reqID := requestID
	r.append(topic, eventlog.JobPayload{RequestID: &reqID, State: eventlog.StateRunRequested})

	r.submit(func() { r.execute(topic, reqID, lf) })
	return nil
}

func (r *Runner) execute(topic eventlog.TopicName, requestID string, lf job.LocalFunction) {
	reqID := requestID
	r.append(topic, eventlog.JobPayload{RequestID: &reqID, State: eventlog.StateRunning})

	kwargs := lf.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	result, err := lf.Fn(kwargs)

	if err != nil {
		exc := &eventlog.RaisedException{Type: fmt.Sprintf("%T", err), Message: err.Error()}
		kind := eventlog.FailureKindException
		r.append(topic, eventlog.JobPayload{
			RequestID:       &reqID,
			State:           eventlog.StateFailed,
			FailureKind:     &kind,
			RaisedException: exc,
		})
		return
	}

	r.append(topic, eventlog.JobPayload{RequestID: &reqID, State: eventlog.StateSucceeded, ResultValue: result})
}

// PollState implements job.JobRunner. Local jobs append their own
// RUNNING and terminal events from the task RequestRun submits, so there
// is nothing left for the poll loop to reconcile; PollState is a no-op
// that reports no additional transition, and is always safe to call.
func (r *Runner) PollState(ctx context.Context, topic eventlog.TopicName, requestID string) (job.RunState, error) {
	return job.RunState{}, nil
}
