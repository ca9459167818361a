// Package scheduler implements the two-phase job loader, manual run
// dispatch, the poll-reconciliation loop, and the quiescence check that
// together make up the scheduling kernel's host-facing API.
package scheduler

import (
	"fmt"
	"sync"

	"kongflow/backend/internal/action"
	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/executor"
	"kongflow/backend/internal/job"
	"kongflow/backend/internal/logger"
)

// Scheduler owns the job registry and the event log. The event log, every
// subscriber invocation, the poll loop, and every action execution all run
// serialized on one cooperative executor; Scheduler is the
// only thing that owns that executor.
type Scheduler struct {
	mu          sync.Mutex
	jobs        map[string]*job.Job // keyed by TopicName.Key()
	pendingBind []*job.Job

	log      *eventlog.Log
	exec     *executor.Executor
	runner   job.JobRunner
	runners  []job.JobRunner
	selector job.RunnerSelector

	cfg Config
	diag *logger.Logger

	stopPoll chan struct{}
	pollDone chan struct{}
}

// New builds a Scheduler from cfg. RunnerFactory must be non-nil.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		jobs:     make(map[string]*job.Job),
		exec:     executor.New(),
		cfg:      cfg,
		diag:     cfg.logger(),
		selector: job.NewRunnerSelector(cfg.Seed),
	}
	s.log = eventlog.NewLogOnExecutor(s.exec)
	s.runner = cfg.RunnerFactory(s.log.Append, s.log.Submit)
	s.runners = append([]job.JobRunner{s.runner}, cfg.Runners...)
	return s
}

// Log returns the scheduler's event log, for callers that need read access
// (e.g. tests asserting on appended events).
func (s *Scheduler) Log() *eventlog.Log { return s.log }

// AddJob registers job in the registry and enqueues it for subscription
// binding, appending its initial WAITING event. Duplicate names are
// rejected synchronously (host-API errors surface to the
// caller directly).
func (s *Scheduler) AddJob(j *job.Job) error {
	key := j.Topic().Key()

	s.mu.Lock()
	if _, exists := s.jobs[key]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", job.ErrDuplicateJobName, j.Name())
	}
	s.jobs[key] = j
	s.pendingBind = append(s.pendingBind, j)
	s.mu.Unlock()

	s.log.Append(j.Topic(), eventlog.JobPayload{State: eventlog.StateWaiting})
	return nil
}

// CreateJobSubscriptions binds every job added since the last call: for
// each (trigger, action) pair, it registers a log subscription that
// evaluates the trigger and, if active, runs the action. Forward and
// cyclic job references are fine because subscriptions are registered
// against topic names, not resolved job pointers.
func (s *Scheduler) CreateJobSubscriptions() {
	s.mu.Lock()
	pending := s.pendingBind
	s.pendingBind = nil
	s.mu.Unlock()

	for _, j := range pending {
		for _, ta := range j.TriggerActions() {
			// Bind per-iteration copies explicitly: a loop variable
			// captured by reference in a closure run after the loop has
			// moved on is a classic closure-capture bug
			// this kernel is modeled on, where every subscriber ended up
			// firing the last job's action. Go 1.22+ loop vars are
			// already per-iteration, but these locals make the intent
			// explicit rather than relying on toolchain version.
			boundJob, boundTA := j, ta
			s.bindSubscription(boundJob, boundTA)
		}
	}
}

func (s *Scheduler) bindSubscription(j *job.Job, ta job.TriggerAction) {
	s.log.Subscribe(ta.Trigger.Topics(), func(low, high eventlog.Timestamp) {
		if !ta.Trigger.IsActive(s.log, low, high, j.Topic()) {
			return
		}
		if _, err := ta.Action.Execute(j, nil, s.candidateRunners(), s.selector, s.log, high); err != nil {
			s.diag.Error("subscriber action failed", map[string]any{
				"job":   j.Name(),
				"error": err.Error(),
			})
		}
	})
}

func (s *Scheduler) candidateRunners() []job.JobRunner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]job.JobRunner, len(s.runners))
	copy(out, s.runners)
	return out
}

// ManualRun enqueues a Run action against the named job onto the
// cooperative executor and returns immediately; RUN_REQUESTED is not
// necessarily appended by the time this call returns.
func (s *Scheduler) ManualRun(jobName string) error {
	return s.ManualRunWithOverrides(jobName, nil)
}

// ManualRunWithOverrides is ManualRun with Run overrides attached.
func (s *Scheduler) ManualRunWithOverrides(jobName string, overrides *job.Overrides) error {
	s.mu.Lock()
	j, ok := s.jobs[eventlog.JobName(jobName).Key()]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", job.ErrInvalidJob, jobName)
	}

	s.exec.Submit(func() {
		if _, err := (action.Run{}).Execute(j, overrides, s.candidateRunners(), s.selector, s.log, s.log.CurrTimestamp()); err != nil {
			s.diag.Error("manual run failed", map[string]any{
				"job":   j.Name(),
				"error": err.Error(),
			})
		}
	})
	return nil
}

// AllAreWaiting reports whether no job's latest event is RUN_REQUESTED or
// RUNNING and the log has no pending subscriber dispatch.
func (s *Scheduler) AllAreWaiting() bool {
	s.mu.Lock()
	jobs := make([]*job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	at := s.log.CurrTimestamp()
	for _, j := range jobs {
		ev := s.log.LastEvent(j.Topic(), at)
		if ev == nil {
			continue
		}
		payload, ok := ev.Payload.(eventlog.JobPayload)
		if !ok {
			continue
		}
		if payload.State == eventlog.StateRunRequested || payload.State == eventlog.StateRunning {
			return false
		}
	}
	return s.log.AllSubscribersCalled()
}

// EventsOf returns every event appended on jobName's topic, in ascending
// timestamp order, for inspection and tests.
func (s *Scheduler) EventsOf(jobName string) []eventlog.Event {
	topic := eventlog.JobName(jobName)
	return s.log.EventsAndState(topic, 1, s.log.CurrTimestamp())
}
