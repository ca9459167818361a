// Package httprunner implements job.JobRunner against a remote endpoint
// over HTTP/JSON, POSTing to /run and /poll. It is the out-of-process
// realization of the unary run/poll contract a JobRunner describes
// abstractly, shaped after endpointapi.Client: an
// api-key-bearing HTTP client with a narrow, typed request/response
// surface rather than a generic RPC stub.
package httprunner

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
	"kongflow/backend/internal/logger"
)

// Runner dispatches RemoteDeployedCommand and RemoteDeployedFunction job
// functions to a single remote endpoint.
type Runner struct {
	name       string
	client     *resty.Client
	append     eventlog.AppendFunc
	logger     *logger.Logger
}

// New builds a Runner named name, talking to baseURL with apiKey, that
// appends reconciled state transitions via append.
func New(name, baseURL, apiKey string, append eventlog.AppendFunc) *Runner {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &Runner{
		name:   name,
		client: client,
		append: append,
		logger: logger.New("httprunner"),
	}
}

// Name implements job.JobRunner.
func (r *Runner) Name() string { return r.name }

// Supports implements job.JobRunner: remote variants only.
func (r *Runner) Supports(fn job.RunnerFunction) bool {
	switch fn.(type) {
	case job.RemoteDeployedCommand, job.RemoteDeployedFunction:
		return true
	default:
		return false
	}
}

type runRequest struct {
	RequestID        string            `json:"requestId"`
	EndpointKey      string            `json:"endpointKey"`
	Command          string            `json:"command,omitempty"`
	FunctionName     string            `json:"functionName,omitempty"`
	Args             []any             `json:"args,omitempty"`
	Kwargs           map[string]any    `json:"kwargs,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	ContextVariables map[string]string `json:"contextVariables,omitempty"`
}

type runResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RequestRun implements job.JobRunner: POST /run, then append
// RUN_REQUESTED on success or a RUN_REQUEST_FAILED-kind FAILED event on
// failure.
func (r *Runner) RequestRun(ctx context.Context, topic eventlog.TopicName, requestID string, fn job.RunnerFunction, args map[string]any) error {
	req, err := buildRunRequest(requestID, fn)
	if err != nil {
		return err
	}

	var resp runResponse
	httpResp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("/run")

	reqID := requestID
	if err != nil || !httpResp.IsSuccess() || !resp.OK {
		msg := errMessage(err, httpResp, resp.Error)
		kind := eventlog.FailureKindRunRequestError
		r.append(topic, eventlog.JobPayload{
			RequestID:   &reqID,
			State:       eventlog.StateFailed,
			FailureKind: &kind,
			RaisedException: &eventlog.RaisedException{
				Type:    "RunRequestError",
				Message: msg,
			},
		})
		r.logger.Error("run request failed", map[string]any{"endpoint": r.name, "error": msg})
		return fmt.Errorf("httprunner: run request failed: %s", msg)
	}

	r.append(topic, eventlog.JobPayload{RequestID: &reqID, State: eventlog.StateRunRequested})
	return nil
}

type pollResponse struct {
	State           string                    `json:"state"`
	PID             *int                      `json:"pid,omitempty"`
	ResultValue     any                       `json:"resultValue,omitempty"`
	ReturnCode      *int                      `json:"returnCode,omitempty"`
	RaisedException *eventlog.RaisedException `json:"raisedException,omitempty"`
}

// PollState implements job.JobRunner: POST /poll and append whatever
// transition the endpoint reports. Re-polling after a terminal state is
// idempotent because the caller (scheduler.pollLoop) only polls jobs whose
// latest recorded event is still RUN_REQUESTED or RUNNING.
func (r *Runner) PollState(ctx context.Context, topic eventlog.TopicName, requestID string) (job.RunState, error) {
	var resp pollResponse
	httpResp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"requestId": requestID}).
		SetResult(&resp).
		Post("/poll")
	if err != nil || !httpResp.IsSuccess() {
		return job.RunState{}, fmt.Errorf("httprunner: poll failed: %s", errMessage(err, httpResp, ""))
	}

	state := eventlog.JobState(resp.State)
	if state == "" {
		return job.RunState{}, nil
	}

	reqID := requestID
	payload := eventlog.JobPayload{
		RequestID:       &reqID,
		State:           state,
		PID:             resp.PID,
		ResultValue:     resp.ResultValue,
		ReturnCode:      resp.ReturnCode,
		RaisedException: resp.RaisedException,
	}
	if state == eventlog.StateFailed && payload.FailureKind == nil {
		kind := eventlog.FailureKindNonZeroExit
		payload.FailureKind = &kind
	}
	r.append(topic, payload)

	return job.RunState{
		State:           state,
		PID:             resp.PID,
		ResultValue:     resp.ResultValue,
		ReturnCode:      resp.ReturnCode,
		RaisedException: resp.RaisedException,
	}, nil
}

func buildRunRequest(requestID string, fn job.RunnerFunction) (runRequest, error) {
	switch f := fn.(type) {
	case job.RemoteDeployedCommand:
		return runRequest{
			RequestID:        requestID,
			EndpointKey:      f.EndpointKey,
			Command:          f.Command,
			Env:              f.Env,
			ContextVariables: f.ContextVariables,
		}, nil
	case job.RemoteDeployedFunction:
		return runRequest{
			RequestID:    requestID,
			EndpointKey:  f.EndpointKey,
			FunctionName: f.FunctionName,
			Args:         f.Args,
			Kwargs:       f.Kwargs,
			Env:          f.Env,
		}, nil
	default:
		return runRequest{}, fmt.Errorf("httprunner: unsupported function type %T", fn)
	}
}

func errMessage(err error, resp *resty.Response, bodyErr string) string {
	if err != nil {
		return err.Error()
	}
	if bodyErr != "" {
		return bodyErr
	}
	if resp != nil {
		return fmt.Sprintf("unexpected status %d", resp.StatusCode())
	}
	return "unknown error"
}
