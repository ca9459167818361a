package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kongflow/backend/internal/eventlog"
)

type stubTrigger struct{ active bool }

func (s stubTrigger) Topics() []eventlog.TopicName { return nil }
func (s stubTrigger) IsActive(*eventlog.Log, eventlog.Timestamp, eventlog.Timestamp, eventlog.TopicName) bool {
	return s.active
}

type stubAction struct{}

func (stubAction) Execute(*Job, *Overrides, []JobRunner, RunnerSelector, *eventlog.Log, eventlog.Timestamp) (string, error) {
	return "ok", nil
}

func validOpts() []Option {
	return []Option{
		WithFunction(LocalFunction{Name: "fn"}),
		WithTriggerAction(stubTrigger{}, stubAction{}),
	}
}

func TestNewJobRequiresName(t *testing.T) {
	_, err := NewJob("", validOpts()...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestNewJobAcceptsCurrentJobLabelAsPlainName(t *testing.T) {
	_, err := NewJob("CURRENT_JOB", validOpts()...)
	// CURRENT_JOB is a plain string here, not the sentinel TopicName, so
	// this must succeed: the invariant is about the sentinel value, not
	// about job names that happen to collide with its label.
	require.NoError(t, err)
}

func TestNewJobRejectsAllScopes(t *testing.T) {
	opts := append(validOpts(), WithScope(eventlog.AllScopes))
	_, err := NewJob("j", opts...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestNewJobRequiresFunction(t *testing.T) {
	_, err := NewJob("j", WithTriggerAction(stubTrigger{}, stubAction{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestNewJobRequiresTriggerAction(t *testing.T) {
	_, err := NewJob("j", WithFunction(LocalFunction{Name: "fn"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestNewJobDefaultsToBaseScope(t *testing.T) {
	j, err := NewJob("j", validOpts()...)
	require.NoError(t, err)
	assert.Equal(t, eventlog.BaseScope, j.Scope())
	assert.Equal(t, "j", j.Name())
	assert.Equal(t, eventlog.JobName("j"), j.Topic())
}

func TestWithExtendedTopicRejectsCollision(t *testing.T) {
	j, err := NewJob("j", validOpts()...)
	require.NoError(t, err)

	scope := eventlog.NewScopeValues(eventlog.ScopeKV{Key: "base", Value: "x"})
	_, err = j.WithExtendedTopic("base", "x", scope)
	require.Error(t, err)
}

func TestWithExtendedTopicAddsKeyAndScope(t *testing.T) {
	j, err := NewJob("j", validOpts()...)
	require.NoError(t, err)

	scope := eventlog.NewScopeValues(eventlog.ScopeKV{Key: "shard", Value: 3})
	extended, err := j.WithExtendedTopic("shard", 3, scope)
	require.NoError(t, err)

	v, ok := extended.Topic().Get("shard")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, scope, extended.Scope())
	// The original job is untouched.
	_, ok = j.Topic().Get("shard")
	assert.False(t, ok)
}

func TestRunnerSelectorSelectsOnlySupportingRunner(t *testing.T) {
	sel := NewRunnerSelector(42)
	yes := &fakeRunner{name: "yes", supports: true}
	no := &fakeRunner{name: "no", supports: false}

	chosen, err := sel.Select([]JobRunner{no, yes}, LocalFunction{Name: "fn"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "yes", chosen.Name())
}

func TestRunnerSelectorFailsWithNoCandidates(t *testing.T) {
	sel := NewRunnerSelector(1)
	no := &fakeRunner{name: "no", supports: false}

	_, err := sel.Select([]JobRunner{no}, LocalFunction{Name: "fn"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCompatibleRunner))
}

func TestRunnerSelectorHonorsExtraPredicate(t *testing.T) {
	sel := NewRunnerSelector(1)
	a := &fakeRunner{name: "a", supports: true}
	b := &fakeRunner{name: "b", supports: true}

	onlyB := func(r JobRunner, fn RunnerFunction, args map[string]any) bool {
		return r.Name() == "b"
	}

	chosen, err := sel.Select([]JobRunner{a, b}, LocalFunction{Name: "fn"}, nil, onlyB)
	require.NoError(t, err)
	assert.Equal(t, "b", chosen.Name())
}

type fakeRunner struct {
	name     string
	supports bool
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Supports(RunnerFunction) bool { return f.supports }

func (f *fakeRunner) RequestRun(context.Context, eventlog.TopicName, string, RunnerFunction, map[string]any) error {
	return nil
}

func (f *fakeRunner) PollState(context.Context, eventlog.TopicName, string) (RunState, error) {
	return RunState{}, nil
}
