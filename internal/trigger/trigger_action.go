package trigger

import "kongflow/backend/internal/eventlog"

// TriggerAction composes one optional EventFilter and one optional
// StatePredicate into a job.Trigger. It fires iff the filter matched in
// the current window and the predicate holds at high; with no filter, it
// only evaluates when one of the predicate's topics produced an event in
// the window (predicates never auto-poll).
type TriggerAction struct {
	Filter    EventFilter
	Predicate StatePredicate
}

// New builds a TriggerAction. At least one of filter or predicate must be
// non-nil.
func New(filter EventFilter, predicate StatePredicate) *TriggerAction {
	return &TriggerAction{Filter: filter, Predicate: predicate}
}

// Topics returns the union of the filter's and predicate's topics.
func (t *TriggerAction) Topics() []eventlog.TopicName {
	seen := make(map[string]eventlog.TopicName)
	if t.Filter != nil {
		for _, topic := range t.Filter.Topics() {
			seen[topic.Key()] = topic
		}
	}
	if t.Predicate != nil {
		for _, topic := range t.Predicate.Topics() {
			if topic.IsCurrentJob() {
				continue // not a log topic; the current job's own events are not subscribed to
			}
			seen[topic.Key()] = topic
		}
	}
	topics := make([]eventlog.TopicName, 0, len(seen))
	for _, topic := range seen {
		topics = append(topics, topic)
	}
	return topics
}

// IsActive implements job.Trigger.
func (t *TriggerAction) IsActive(log *eventlog.Log, low, high eventlog.Timestamp, currentJob eventlog.TopicName) bool {
	if t.Filter != nil {
		filterActive := false
		if f, ok := t.Filter.(AnyJobStateEventFilter); ok {
			filterActive = anyJobStateActive(f, log, low, high)
		} else {
			filterActive = genericFilterActive(t.Filter, log, low, high)
		}
		if !filterActive {
			return false
		}
	}
	if t.Predicate != nil {
		return t.Predicate.Holds(log, low, high, currentJob)
	}
	return true
}

// genericFilterActive supports EventFilter implementations other than the
// canonical AnyJobStateEventFilter: active iff any event in the window on
// any of the filter's topics matches.
func genericFilterActive(f EventFilter, log *eventlog.Log, low, high eventlog.Timestamp) bool {
	for _, topic := range f.Topics() {
		for _, event := range log.EventsAndState(topic, low, high) {
			if event.Timestamp < low {
				continue // baseline event prepended by EventsAndState, not in-window
			}
			if f.Matches(event) {
				return true
			}
		}
	}
	return false
}
