package eventlog

// Timestamp is a strictly increasing 64-bit counter assigned by the Log at
// append time. Because every append gets a fresh value (see log.go), two
// events never share a timestamp; append order and timestamp order are
// therefore the same thing, so no separate tie-break field is needed.
type Timestamp uint64

// JobState is one of the states a job's lifecycle can be in.
type JobState string

const (
	StateWaiting      JobState = "WAITING"
	StateRunRequested JobState = "RUN_REQUESTED"
	StateRunning      JobState = "RUNNING"
	StateSucceeded    JobState = "SUCCEEDED"
	StateCancelled    JobState = "CANCELLED"
	StateFailed       JobState = "FAILED"
)

// FailureKind classifies a FAILED event.
type FailureKind string

const (
	FailureKindException       FailureKind = "PYTHON_EXCEPTION"
	FailureKindNonZeroExit     FailureKind = "NON_ZERO_RETURN_CODE"
	FailureKindRunRequestError FailureKind = "RUN_REQUEST_FAILED"
)

// RaisedException represents an exception raised by a remote runner process,
// carried structured instead of as a bare error so it survives the
// runner-to-log boundary intact.
type RaisedException struct {
	Type      string
	Message   string
	Traceback string
}

// JobPayload is the Event payload for job-related events.
type JobPayload struct {
	RequestID       *string
	State           JobState
	FailureKind     *FailureKind
	PID             *int
	ResultValue     any
	RaisedException *RaisedException
	ReturnCode      *int
	Effects         any
}

// Event is an immutable record on a topic.
type Event struct {
	Topic     TopicName
	Timestamp Timestamp
	Payload   any
}

// AppendFunc is the capability a Log exposes to runners so they can record
// state transitions without depending on the Log type directly.
type AppendFunc func(topic TopicName, payload any) Timestamp

// SubmitFunc is the capability a Log exposes to runners so they can run
// follow-up work (e.g. a job function body and the state transitions it
// produces) on the same cooperative executor driving subscriber dispatch
// and action execution, instead of a raw goroutine racing against them.
type SubmitFunc func(task func())
