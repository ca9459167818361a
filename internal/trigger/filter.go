// Package trigger implements job.Trigger via two pure building blocks —
// edge-triggered EventFilter and level-triggered StatePredicate — composed
// by TriggerAction.
package trigger

import "kongflow/backend/internal/eventlog"

// EventFilter is edge-triggered: it inspects each event delivered in a
// notification window independently of any other log state.
type EventFilter interface {
	// Topics lists the topics this filter needs events from.
	Topics() []eventlog.TopicName
	// Matches reports whether event on its own satisfies the filter.
	Matches(event eventlog.Event) bool
}

// AnyJobStateEventFilter is active over a window iff any named job's most
// recently observed event within that window has a state in onStates.
type AnyJobStateEventFilter struct {
	JobNames []string
	OnStates []eventlog.JobState
}

// Topics returns the per-job-name topic for every job this filter watches.
func (f AnyJobStateEventFilter) Topics() []eventlog.TopicName {
	topics := make([]eventlog.TopicName, len(f.JobNames))
	for i, name := range f.JobNames {
		topics[i] = eventlog.JobName(name)
	}
	return topics
}

// Matches reports whether event's payload carries a state in OnStates.
func (f AnyJobStateEventFilter) Matches(event eventlog.Event) bool {
	payload, ok := event.Payload.(eventlog.JobPayload)
	if !ok {
		return false
	}
	for _, s := range f.OnStates {
		if payload.State == s {
			return true
		}
	}
	return false
}

// AnyEventFilter matches any event delivered on its topics, independent of
// payload shape. Scope-instantiation announcements carry an
// eventlog.ScopeValues payload rather than eventlog.JobPayload, so
// AnyJobStateEventFilter can never match them; a scope-expansion generator
// job pairs its trigger with this filter instead.
type AnyEventFilter struct {
	TopicNames []eventlog.TopicName
}

// Topics implements EventFilter.
func (f AnyEventFilter) Topics() []eventlog.TopicName { return f.TopicNames }

// Matches implements EventFilter: always true, since this filter only
// cares that an event arrived, not what it carries.
func (f AnyEventFilter) Matches(eventlog.Event) bool { return true }

// anyJobStateActive evaluates AnyJobStateEventFilter against a window using
// the real log: it is the *latest* event per topic within
// [low, high] that is checked, not every event in the window.
func anyJobStateActive(f AnyJobStateEventFilter, log *eventlog.Log, low, high eventlog.Timestamp) bool {
	for _, topic := range f.Topics() {
		events := log.EventsAndState(topic, low, high)
		if len(events) == 0 {
			continue
		}
		latest := events[len(events)-1]
		if latest.Timestamp < low {
			// Only the baseline-state event was present; no new event in
			// this window for this topic.
			continue
		}
		if f.Matches(latest) {
			return true
		}
	}
	return false
}
