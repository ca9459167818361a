// Package job holds the types and interfaces shared by every other package
// in the scheduling kernel: the Job itself, the Trigger/Action contracts a
// Job is built from, and the JobRunner capability contract a Run action
// dispatches to. Keeping these in one leaf package (depended on by trigger,
// action, scheduler, and the runner implementations, but depending on none
// of them) avoids an import cycle between trigger/action and scheduler.
package job

import (
	"fmt"

	"kongflow/backend/internal/eventlog"
)

// Trigger decides, from log state as of a notification window, whether its
// owning Job's paired Action should run. A Trigger may be built purely from
// an EventFilter, purely from a StatePredicate, or a composition of both
// (see internal/trigger); this package only needs the evaluated result.
type Trigger interface {
	// Topics lists every topic whose events may change this trigger's
	// truth value; the scheduler subscribes to their union.
	Topics() []eventlog.TopicName
	// IsActive evaluates the trigger against the window [low, high] that
	// just woke the subscriber, and the identity of the job being
	// evaluated (substituted for eventlog.CurrentJob in predicates that
	// reference it).
	IsActive(log *eventlog.Log, low, high eventlog.Timestamp, currentJob eventlog.TopicName) bool
}

// Action is the effect a Job performs once one of its triggers fires.
type Action interface {
	Execute(j *Job, overrides *Overrides, runners []JobRunner, selector RunnerSelector, log *eventlog.Log, at eventlog.Timestamp) (requestID string, err error)
}

// TriggerAction pairs one Trigger with the Action it fires.
type TriggerAction struct {
	Trigger Trigger
	Action  Action
}

// Job is a named, triggered unit of scheduling. Jobs are immutable once
// built via NewJob; the two-phase loader in the scheduler package is what
// lets jobs reference each other despite this immutability.
type Job struct {
	name            eventlog.TopicName
	jobFunction     JobFunction
	triggerActions  []TriggerAction
	runnerPredicate Predicate
	scope           eventlog.ScopeValues
}

// Option configures a Job at construction time.
type Option func(*jobConfig)

type jobConfig struct {
	scope           eventlog.ScopeValues
	jobFunction     JobFunction
	triggerActions  []TriggerAction
	runnerPredicate Predicate
}

// WithScope attaches a non-default scope to the job. Passing eventlog.AllScopes
// is rejected by NewJob.
func WithScope(scope eventlog.ScopeValues) Option {
	return func(c *jobConfig) { c.scope = scope }
}

// WithFunction sets the job's job_function: a RunnerFunction variant or a
// VersionedRunnerFunction resolving to one. Required.
func WithFunction(jf JobFunction) Option {
	return func(c *jobConfig) { c.jobFunction = jf }
}

// WithTriggerAction appends one (trigger, action) pair to the job. At least
// one is required.
func WithTriggerAction(t Trigger, a Action) Option {
	return func(c *jobConfig) { c.triggerActions = append(c.triggerActions, TriggerAction{Trigger: t, Action: a}) }
}

// WithRunnerPredicate restricts runner selection for this job to runners
// satisfying pred, in addition to the baseline Supports check.
func WithRunnerPredicate(pred Predicate) Option {
	return func(c *jobConfig) { c.runnerPredicate = pred }
}

// NewJob builds a Job from options. name must be non-empty; a job function
// and at least one trigger/action pair are required.
func NewJob(name string, opts ...Option) (*Job, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidJob)
	}
	topic := eventlog.JobName(name)
	if topic.IsCurrentJob() {
		return nil, fmt.Errorf("%w: name must not be the CURRENT_JOB sentinel", ErrInvalidJob)
	}

	cfg := jobConfig{scope: eventlog.BaseScope}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.scope.IsAllScopes() {
		return nil, fmt.Errorf("%w: job %q: scope must not be ALL_SCOPES", ErrInvalidJob, name)
	}
	if cfg.jobFunction == nil {
		return nil, fmt.Errorf("%w: job %q: job function is required", ErrInvalidJob, name)
	}
	if len(cfg.triggerActions) == 0 {
		return nil, fmt.Errorf("%w: job %q: at least one trigger/action pair is required", ErrInvalidJob, name)
	}

	return &Job{
		name:            topic,
		jobFunction:     cfg.jobFunction,
		triggerActions:  cfg.triggerActions,
		runnerPredicate: cfg.runnerPredicate,
		scope:           cfg.scope,
	}, nil
}

// Name returns the job's unqualified name.
func (j *Job) Name() string { return j.name.Base() }

// Topic returns the canonical topic name a job's own state events are
// published under, and the key the scheduler registers it under.
func (j *Job) Topic() eventlog.TopicName { return j.name }

// Scope returns the job's scope.
func (j *Job) Scope() eventlog.ScopeValues { return j.scope }

// Function returns the job's job_function descriptor.
func (j *Job) Function() JobFunction { return j.jobFunction }

// TriggerActions returns the job's (trigger, action) pairs.
func (j *Job) TriggerActions() []TriggerAction { return j.triggerActions }

// RunnerPredicate returns the job's extra runner-eligibility predicate, or
// nil if none was set.
func (j *Job) RunnerPredicate() Predicate { return j.runnerPredicate }

// WithExtendedTopic returns a copy of j whose name has been extended with
// key=value and whose scope is set to scope, for use by scope expansion.
// It fails if the extension collides with an existing key.
func (j *Job) WithExtendedTopic(key string, value any, scope eventlog.ScopeValues) (*Job, error) {
	newName, err := j.name.With(key, value)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", j.Name(), err)
	}
	cp := *j
	cp.name = newName
	cp.scope = scope
	return &cp, nil
}
