package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

type noopTrigger struct{}

func (noopTrigger) Topics() []eventlog.TopicName { return nil }
func (noopTrigger) IsActive(*eventlog.Log, eventlog.Timestamp, eventlog.Timestamp, eventlog.TopicName) bool {
	return false
}

type noopAction struct{}

func (noopAction) Execute(*job.Job, *job.Overrides, []job.JobRunner, job.RunnerSelector, *eventlog.Log, eventlog.Timestamp) (string, error) {
	return "", nil
}

func newShardJob(t *testing.T, name string) *job.Job {
	t.Helper()
	j, err := job.NewJob(name,
		job.WithFunction(job.LocalFunction{Name: name}),
		job.WithTriggerAction(noopTrigger{}, noopAction{}),
	)
	require.NoError(t, err)
	return j
}

func TestExpandRequiresExactlyOneScopeValuesPayload(t *testing.T) {
	_, err := Expand([]eventlog.Event{{Payload: "not a scope"}}, func(eventlog.ScopeValues) ([]*job.Job, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, job.ErrScopeArityMismatch))
}

func TestExpandRejectsMultipleScopeValuesPayloads(t *testing.T) {
	sv := eventlog.NewScopeValues(eventlog.ScopeKV{Key: "shard", Value: 1})
	events := []eventlog.Event{{Payload: sv}, {Payload: sv}}

	_, err := Expand(events, func(eventlog.ScopeValues) ([]*job.Job, error) { return nil, nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, job.ErrScopeArityMismatch))
}

func TestExpandExtendsEveryReturnedJobsTopic(t *testing.T) {
	sv := eventlog.NewScopeValues(eventlog.ScopeKV{Key: "shard", Value: 7})
	events := []eventlog.Event{{Payload: sv}}

	jobs, err := Expand(events, func(scope eventlog.ScopeValues) ([]*job.Job, error) {
		return []*job.Job{newShardJob(t, "process")}, nil
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	v, ok := jobs[0].Topic().Get("shard")
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, sv, jobs[0].Scope())
}

func TestExpandFailsOnKeyCollision(t *testing.T) {
	sv := eventlog.NewScopeValues(eventlog.ScopeKV{Key: "base", Value: "process"})
	events := []eventlog.Event{{Payload: sv}}

	_, err := Expand(events, func(eventlog.ScopeValues) ([]*job.Job, error) {
		return []*job.Job{newShardJob(t, "process")}, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, job.ErrScopeKeyCollision))
}
