package eventlog

import (
	"sort"
	"sync"
	"sync/atomic"

	"kongflow/backend/internal/executor"
)

// Log is an append-only, in-memory, totally ordered event store with
// per-topic indexing and a window-coalescing subscriber mechanism. It is
// not durable: process restart loses all events, which is by design for
// this kernel.
type Log struct {
	mu      sync.Mutex
	events  []Event
	byTopic map[string][]int // topic key -> ascending indices into events

	subs       []*subscription
	byTopicSub map[string][]*subscription

	curr Timestamp

	exec            *executor.Executor
	activeDispatch  int32 // atomic: number of subscriptions with a pending/running window
}

type subscription struct {
	topics    []TopicName
	topicKeys map[string]struct{}
	handler   func(low, high Timestamp)

	mu          sync.Mutex
	nextLow     Timestamp
	pendingHigh Timestamp
	scheduled   bool
}

// NewLog creates an empty event log driven by its own, privately owned
// executor goroutine. Callers must call Run exactly once to begin
// dispatching subscribers. (A Scheduler builds its log with
// NewLogOnExecutor instead, and Scheduler.Start runs it.)
func NewLog() *Log {
	return NewLogOnExecutor(executor.New())
}

// NewLogOnExecutor creates an empty event log whose subscriber dispatch is
// submitted to exec rather than a private one. The scheduler package uses
// this so the log's subscriber invocations, the poll loop, and action
// executions all serialize on one shared cooperative executor, instead of
// three independent loops.
func NewLogOnExecutor(exec *executor.Executor) *Log {
	return &Log{
		byTopic:    make(map[string][]int),
		byTopicSub: make(map[string][]*subscription),
		exec:       exec,
	}
}

// Executor returns the executor driving this log's subscriber dispatch.
func (l *Log) Executor() *executor.Executor { return l.exec }

// Submit runs task on the same cooperative executor that drives subscriber
// dispatch and action execution, serializing it with both. Runners use
// this to advance a job's state (e.g. RUNNING -> terminal) instead of a
// raw goroutine, so a rapid second dispatch against the same job can never
// observe a partially-applied transition.
func (l *Log) Submit(task func()) { l.exec.Submit(task) }

// Run drains the log's executor, serializing subscriber dispatch. It
// blocks until Stop is called. If the log shares its executor with a
// scheduler, call the scheduler's Start/Stop instead of this directly.
func (l *Log) Run() { l.exec.Run() }

// Stop signals Run to return once pending dispatches drain.
func (l *Log) Stop() { l.exec.Stop() }

// Append atomically assigns the next timestamp, records the event, and
// schedules any interested subscribers for a wake. It never blocks on
// subscriber work.
func (l *Log) Append(topic TopicName, payload any) Timestamp {
	l.mu.Lock()
	l.curr++
	ts := l.curr
	idx := len(l.events)
	l.events = append(l.events, Event{Topic: topic, Timestamp: ts, Payload: payload})
	key := topic.Key()
	l.byTopic[key] = append(l.byTopic[key], idx)
	interested := l.byTopicSub[key]
	l.mu.Unlock()

	for _, sub := range interested {
		l.scheduleOrExtend(sub, ts)
	}

	return ts
}

func (l *Log) scheduleOrExtend(sub *subscription, ts Timestamp) {
	sub.mu.Lock()
	if sub.scheduled {
		if ts > sub.pendingHigh {
			sub.pendingHigh = ts
		}
		sub.mu.Unlock()
		return
	}
	sub.scheduled = true
	sub.pendingHigh = ts
	sub.mu.Unlock()

	atomic.AddInt32(&l.activeDispatch, 1)
	l.exec.Submit(func() { l.runSubscription(sub) })
}

func (l *Log) runSubscription(sub *subscription) {
	sub.mu.Lock()
	low := sub.nextLow
	high := sub.pendingHigh
	sub.mu.Unlock()

	sub.handler(low, high)

	sub.mu.Lock()
	sub.nextLow = high + 1
	if sub.pendingHigh > high {
		// More events arrived on this subscription's topics while the
		// handler was running; schedule the follow-up window instead of
		// re-entering the handler now.
		sub.mu.Unlock()
		l.exec.Submit(func() { l.runSubscription(sub) })
		return
	}
	sub.scheduled = false
	sub.mu.Unlock()
	atomic.AddInt32(&l.activeDispatch, -1)
}

// LastEvent returns the most recent event on topic with timestamp <= at, or
// nil if there is none.
func (l *Log) LastEvent(topic TopicName, at Timestamp) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastEventLocked(topic, at)
}

func (l *Log) lastEventLocked(topic TopicName, at Timestamp) *Event {
	idxs := l.byTopic[topic.Key()]
	if len(idxs) == 0 {
		return nil
	}
	// idxs is ascending by timestamp since events only ever append.
	i := sort.Search(len(idxs), func(i int) bool {
		return l.events[idxs[i]].Timestamp > at
	})
	if i == 0 {
		return nil
	}
	ev := l.events[idxs[i-1]]
	return &ev
}

// EventsAndState returns, in ascending timestamp order, the events on topic
// in [low, high]. If the window doesn't start with an event exactly at low,
// the most recent event strictly before low is prepended so a consumer can
// reconstruct the topic's state as of low as well as every transition up to
// high.
func (l *Log) EventsAndState(topic TopicName, low, high Timestamp) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	idxs := l.byTopic[topic.Key()]
	lo := sort.Search(len(idxs), func(i int) bool { return l.events[idxs[i]].Timestamp >= low })
	hi := sort.Search(len(idxs), func(i int) bool { return l.events[idxs[i]].Timestamp > high })

	result := make([]Event, 0, hi-lo+1)
	if low > 0 {
		if lo == hi || l.events[idxs[lo]].Timestamp != low {
			if baseline := l.lastEventLocked(topic, low-1); baseline != nil {
				result = append(result, *baseline)
			}
		}
	}
	for _, idx := range idxs[lo:hi] {
		result = append(result, l.events[idx])
	}
	return result
}

// CurrTimestamp returns the timestamp of the most recent append, or 0.
func (l *Log) CurrTimestamp() Timestamp {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.curr
}

// Subscribe registers handler to be called with batches of events across
// topics. Each call creates an independent subscription, even if the same
// handler value is passed more than once (callers that want the handlers
// coalesced should subscribe once with the union of topics).
func (l *Log) Subscribe(topics []TopicName, handler func(low, high Timestamp)) {
	sub := &subscription{
		topics:    append([]TopicName{}, topics...),
		topicKeys: make(map[string]struct{}, len(topics)),
		handler:   handler,
	}
	for _, t := range topics {
		sub.topicKeys[t.Key()] = struct{}{}
	}

	l.mu.Lock()
	l.subs = append(l.subs, sub)
	for key := range sub.topicKeys {
		l.byTopicSub[key] = append(l.byTopicSub[key], sub)
	}
	l.mu.Unlock()
}

// AllSubscribersCalled reports whether every scheduled subscriber
// invocation has completed and no new appends are pending dispatch.
func (l *Log) AllSubscribersCalled() bool {
	return atomic.LoadInt32(&l.activeDispatch) == 0
}
