// Package scope implements the scope-expansion wrapper contract: a job
// whose trigger fires on a ScopeInstantiated topic can spawn a family of
// further jobs, one per scope instantiation, whose topic names are
// extended with the scope's key/value pairs.
package scope

import (
	"fmt"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

// UserFunc is the user-authored scope-expansion function: given the scope
// that was instantiated, return the jobs it should produce.
type UserFunc func(scope eventlog.ScopeValues) ([]*job.Job, error)

// Expand runs the scope-expansion wrapper: it requires that events
// contains exactly one eventlog.ScopeValues payload, invokes fn with it,
// and extends every returned job's topic name with each (key, value) pair
// in the scope, setting the job's scope along the way.
func Expand(events []eventlog.Event, fn UserFunc) ([]*job.Job, error) {
	scope, err := extractScope(events)
	if err != nil {
		return nil, err
	}

	jobs, err := fn(scope)
	if err != nil {
		return nil, fmt.Errorf("scope expansion function failed: %w", err)
	}

	expanded := make([]*job.Job, 0, len(jobs))
	for _, j := range jobs {
		ej := j
		for _, key := range scope.Keys() {
			value, _ := scope.Get(key)
			ej, err = ej.WithExtendedTopic(key, value, scope)
			if err != nil {
				return nil, fmt.Errorf("%w: job %q: %v", job.ErrScopeKeyCollision, j.Name(), err)
			}
		}
		expanded = append(expanded, ej)
	}
	return expanded, nil
}

func extractScope(events []eventlog.Event) (eventlog.ScopeValues, error) {
	var found *eventlog.ScopeValues
	for _, ev := range events {
		sv, ok := ev.Payload.(eventlog.ScopeValues)
		if !ok {
			continue
		}
		if found != nil {
			return eventlog.ScopeValues{}, fmt.Errorf("%w: more than one ScopeValues payload in window", job.ErrScopeArityMismatch)
		}
		found = &sv
	}
	if found == nil {
		return eventlog.ScopeValues{}, fmt.Errorf("%w: no ScopeValues payload in window", job.ErrScopeArityMismatch)
	}
	return *found, nil
}
