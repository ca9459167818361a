package scheduler

import (
	"time"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
	"kongflow/backend/internal/logger"
)

// DefaultPollDelay is the poll loop's sleep between reconciliation
// passes.
const DefaultPollDelay = time.Second

// Config configures a Scheduler. RunnerFactory is required; everything
// else has a usable zero value or default.
type Config struct {
	// PollDelay is the sleep between poll loop passes. Zero means
	// DefaultPollDelay.
	PollDelay time.Duration
	// RunnerFactory builds the scheduler's primary runner, given the log's
	// append function so the runner can record state transitions itself,
	// and the log's submit function so any follow-up work the runner
	// defers (e.g. running a local job function body and appending its
	// result) stays serialized on the scheduler's single cooperative
	// executor instead of racing it from a raw goroutine.
	RunnerFactory func(eventlog.AppendFunc, eventlog.SubmitFunc) job.JobRunner
	// Runners are additional statically-registered runners consulted
	// alongside the factory-built one during selection, so tests and
	// multi-runner deployments have more than one candidate to choose
	// from.
	Runners []job.JobRunner
	// Seed seeds the runner-selection RNG. Zero is a valid seed; pin it
	// in tests for reproducible runner choice.
	Seed int64
	// Logger receives diagnostic records for SubscriberFailure and
	// PollFailure. Defaults to logger.New("scheduler").
	Logger *logger.Logger
}

func (c Config) pollDelay() time.Duration {
	if c.PollDelay <= 0 {
		return DefaultPollDelay
	}
	return c.PollDelay
}

func (c Config) logger() *logger.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.New("scheduler")
}
