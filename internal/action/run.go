// Package action implements job.Action. Run is currently the only
// concrete variant.
package action

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

// Run is the single-flight dispatch action: look up the job's current
// state, short-circuit if a run is already in flight, otherwise resolve
// the job function, apply overrides, substitute latest-event arguments,
// select a runner, and hand off.
type Run struct{}

// Execute implements job.Action.
func (Run) Execute(j *job.Job, overrides *job.Overrides, runners []job.JobRunner, selector job.RunnerSelector, log *eventlog.Log, at eventlog.Timestamp) (string, error) {
	if ev := log.LastEvent(j.Topic(), at); ev != nil {
		if payload, ok := ev.Payload.(eventlog.JobPayload); ok {
			if payload.State == eventlog.StateRunRequested || payload.State == eventlog.StateRunning {
				if payload.RequestID != nil {
					return *payload.RequestID, nil
				}
			}
		}
	}

	requestID := uuid.NewString()

	fn, err := job.Resolve(j.Function())
	if err != nil {
		return "", fmt.Errorf("%w: job %q: %v", job.ErrBadJobFunction, j.Name(), err)
	}

	fn, err = overrides.ApplyTo(fn)
	if err != nil {
		return "", fmt.Errorf("%w: job %q: %v", job.ErrOverrideNotApplicable, j.Name(), err)
	}

	fn = substituteLatestEventArgs(fn, log, at)

	var extra []job.Predicate
	if pred := j.RunnerPredicate(); pred != nil {
		extra = append(extra, pred)
	}
	runner, err := selector.Select(runners, fn, nil, extra...)
	if err != nil {
		return "", fmt.Errorf("%w: job %q", job.ErrNoCompatibleRunner, j.Name())
	}

	if err := runner.RequestRun(context.Background(), j.Topic(), requestID, fn, nil); err != nil {
		// The runner is responsible for appending RUN_REQUEST_FAILED-style
		// events into the log itself; Execute only surfaces
		// the synchronous failure to its caller.
		return "", fmt.Errorf("run request to %s failed: %w", runner.Name(), err)
	}

	return requestID, nil
}
