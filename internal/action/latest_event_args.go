package action

import (
	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

// LatestEventArg is an argument placeholder: "substitute the latest event
// on Topic as of the dispatch timestamp." Job authors embed a
// LatestEventArg wherever they want a run to receive the upstream event
// that (indirectly) triggered it.
type LatestEventArg struct {
	Topic eventlog.TopicName
}

func resolveArg(v any, log *eventlog.Log, at eventlog.Timestamp) any {
	marker, ok := v.(LatestEventArg)
	if !ok {
		return v
	}
	return log.LastEvent(marker.Topic, at)
}

// substituteLatestEventArgs returns a copy of fn with every LatestEventArg
// in its positional/keyword arguments replaced by the actual *eventlog.Event
// (or nil, if none exists yet).
func substituteLatestEventArgs(fn job.RunnerFunction, log *eventlog.Log, at eventlog.Timestamp) job.RunnerFunction {
	switch f := fn.(type) {
	case job.LocalFunction:
		f.Args = substituteSlice(f.Args, log, at)
		f.Kwargs = substituteMap(f.Kwargs, log, at)
		return f
	case job.RemoteDeployedFunction:
		f.Args = substituteSlice(f.Args, log, at)
		f.Kwargs = substituteMap(f.Kwargs, log, at)
		return f
	default:
		return fn
	}
}

func substituteSlice(args []any, log *eventlog.Log, at eventlog.Timestamp) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = resolveArg(v, log, at)
	}
	return out
}

func substituteMap(kwargs map[string]any, log *eventlog.Log, at eventlog.Timestamp) map[string]any {
	if kwargs == nil {
		return nil
	}
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		out[k] = resolveArg(v, log, at)
	}
	return out
}
