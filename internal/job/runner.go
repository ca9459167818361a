package job

import (
	"context"
	"fmt"
	"math/rand"

	"kongflow/backend/internal/eventlog"
)

// JobRunner is the capability a Run action dispatches a RunnerFunction to.
// Implementations live outside this package (internal/runner/httprunner,
// internal/runner/localrunner) to keep job free of transport concerns.
type JobRunner interface {
	// Name identifies the runner for logging and predicate matching.
	Name() string
	// Supports reports whether this runner can execute fn at all.
	Supports(fn RunnerFunction) bool
	// RequestRun asks the runner to start fn with args on behalf of the job
	// named by topic, under requestID for idempotence: calling RequestRun
	// twice with the same requestID for a still-in-flight or
	// already-completed run must not start a second one. The runner
	// appends RUN_REQUESTED (and, as the run progresses, every later
	// transition) onto topic itself.
	RequestRun(ctx context.Context, topic eventlog.TopicName, requestID string, fn RunnerFunction, args map[string]any) error
	// PollState reconciles a previously requested run for the job named by
	// topic, appending whatever transition it observes, and returns that
	// transition for the caller's own diagnostics. Re-polling after a
	// terminal append must be a no-op.
	PollState(ctx context.Context, topic eventlog.TopicName, requestID string) (RunState, error)
}

// RunState is a runner's report on a single requested run.
type RunState struct {
	State           eventlog.JobState
	PID             *int
	ResultValue     any
	ReturnCode      *int
	RaisedException *eventlog.RaisedException
}

// Predicate decides whether a JobRunner is eligible to run a given job
// invocation. Predicates compose with And/Or/Not.
type Predicate func(r JobRunner, fn RunnerFunction, args map[string]any) bool

// And returns a predicate requiring all of ps to hold.
func And(ps ...Predicate) Predicate {
	return func(r JobRunner, fn RunnerFunction, args map[string]any) bool {
		for _, p := range ps {
			if !p(r, fn, args) {
				return false
			}
		}
		return true
	}
}

// Or returns a predicate requiring at least one of ps to hold.
func Or(ps ...Predicate) Predicate {
	return func(r JobRunner, fn RunnerFunction, args map[string]any) bool {
		for _, p := range ps {
			if p(r, fn, args) {
				return true
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(r JobRunner, fn RunnerFunction, args map[string]any) bool {
		return !p(r, fn, args)
	}
}

// Supports is the baseline predicate every selection implicitly includes:
// a runner must claim it supports the function before it is a candidate.
func Supports(r JobRunner, fn RunnerFunction, args map[string]any) bool {
	return r.Supports(fn)
}

// RunnerSelector picks one JobRunner from a candidate set. The default
// implementation is seedable so test scenarios that exercise multiple
// compatible runners are reproducible.
type RunnerSelector struct {
	rng *rand.Rand
}

// NewRunnerSelector returns a selector seeded with seed. Use a fixed seed
// in tests for reproducible runner choice among equally eligible runners.
func NewRunnerSelector(seed int64) RunnerSelector {
	return RunnerSelector{rng: rand.New(rand.NewSource(seed))}
}

// Select filters runners down to those supporting fn and satisfying every
// predicate in extra, then picks uniformly at random among the survivors.
// Returns ErrNoCompatibleRunner if the candidate set is empty: surfaced to
// the caller, never appended to the log as a synthetic event.
// TODO: consider appending a diagnostic NO_COMPATIBLE_RUNNER event once the
// log has a non-job-state event kind to carry it.
func (s RunnerSelector) Select(runners []JobRunner, fn RunnerFunction, args map[string]any, extra ...Predicate) (JobRunner, error) {
	all := And(append([]Predicate{Supports}, extra...)...)
	var candidates []JobRunner
	for _, r := range runners {
		if all(r, fn, args) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w", ErrNoCompatibleRunner)
	}
	if s.rng == nil {
		return candidates[0], nil
	}
	return candidates[s.rng.Intn(len(candidates))], nil
}
