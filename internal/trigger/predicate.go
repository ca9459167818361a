package trigger

import "kongflow/backend/internal/eventlog"

// StatePredicate is level-triggered: it sees the whole log, not just the
// events in a window, and may query eventlog.Log.LastEvent across any
// topic it names via Topics.
type StatePredicate interface {
	// Topics lists the topics this predicate may query.
	Topics() []eventlog.TopicName
	// Holds evaluates the predicate as of timestamp high, with currentJob
	// substituted for eventlog.CurrentJob wherever a topic in Topics names
	// it.
	Holds(log *eventlog.Log, low, high eventlog.Timestamp, currentJob eventlog.TopicName) bool
}

// AllJobStatePredicate holds iff every named job (currentJob substituted
// for CURRENT_JOB) has a last event at or before high whose state is in
// OnStates.
type AllJobStatePredicate struct {
	JobNames []string
	OnStates []eventlog.JobState
}

// Topics returns the per-job-name topic for every job this predicate
// queries, substituting eventlog.CurrentJob for the literal name
// "CURRENT_JOB".
func (p AllJobStatePredicate) Topics() []eventlog.TopicName {
	topics := make([]eventlog.TopicName, len(p.JobNames))
	for i, name := range p.JobNames {
		if name == "CURRENT_JOB" {
			topics[i] = eventlog.CurrentJob
			continue
		}
		topics[i] = eventlog.JobName(name)
	}
	return topics
}

// Holds implements StatePredicate.
func (p AllJobStatePredicate) Holds(log *eventlog.Log, low, high eventlog.Timestamp, currentJob eventlog.TopicName) bool {
	for _, topic := range p.Topics() {
		if topic.IsCurrentJob() {
			topic = currentJob
		}
		ev := log.LastEvent(topic, high)
		if ev == nil {
			return false
		}
		payload, ok := ev.Payload.(eventlog.JobPayload)
		if !ok {
			return false
		}
		if !stateIn(payload.State, p.OnStates) {
			return false
		}
	}
	return true
}

func stateIn(s eventlog.JobState, states []eventlog.JobState) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}
