package action

import (
	"fmt"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
	"kongflow/backend/internal/scope"
)

// JobRegistrar is the subset of Scheduler a ScopeExpand action needs: add a
// newly generated job to the registry, then (re-)run subscription binding
// so its own triggers take effect. Scheduler satisfies this directly.
type JobRegistrar interface {
	AddJob(j *job.Job) error
	CreateJobSubscriptions()
}

// ScopeExpand is the action a scope-instantiation generator job pairs with
// its trigger. On firing it reads the most recent event on the generator's
// own topic (expected to carry the eventlog.ScopeValues payload that woke
// it), runs Generate against that scope, adds every job it returns to
// Registrar, and re-binds subscriptions so the new jobs' own triggers are
// live before Execute returns.
type ScopeExpand struct {
	Registrar JobRegistrar
	Generate  scope.UserFunc
}

// Execute implements job.Action. It never dispatches a run itself, so it
// always returns an empty request id.
func (a ScopeExpand) Execute(j *job.Job, _ *job.Overrides, _ []job.JobRunner, _ job.RunnerSelector, log *eventlog.Log, at eventlog.Timestamp) (string, error) {
	ev := log.LastEvent(j.Topic(), at)
	if ev == nil {
		return "", fmt.Errorf("scope expand: job %q: no event at t=%d", j.Name(), at)
	}

	jobs, err := scope.Expand([]eventlog.Event{*ev}, a.Generate)
	if err != nil {
		return "", fmt.Errorf("scope expand: job %q: %w", j.Name(), err)
	}

	for _, nj := range jobs {
		if err := a.Registrar.AddJob(nj); err != nil {
			return "", fmt.Errorf("scope expand: job %q: adding %q: %w", j.Name(), nj.Name(), err)
		}
	}
	a.Registrar.CreateJobSubscriptions()
	return "", nil
}
