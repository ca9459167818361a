package main

import (
	"fmt"
	"log"
	"time"

	"kongflow/backend/internal/action"
	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
	"kongflow/backend/internal/runner/localrunner"
	"kongflow/backend/internal/scheduler"
	"kongflow/backend/internal/trigger"
)

// idleAction never fires anything; it exists only so the extract job has a
// trigger/action pair to satisfy job.NewJob. The demo drives extract's
// actual execution via ManualRun instead of a trigger.
type idleAction struct{}

func (idleAction) Execute(*job.Job, *job.Overrides, []job.JobRunner, job.RunnerSelector, *eventlog.Log, eventlog.Timestamp) (string, error) {
	return "", nil
}

func main() {
	fmt.Println("=== kongflow scheduler demo ===")

	sched := scheduler.New(scheduler.Config{
		PollDelay: 200 * time.Millisecond,
		RunnerFactory: func(append eventlog.AppendFunc, submit eventlog.SubmitFunc) job.JobRunner {
			return localrunner.New(append, submit)
		},
		Seed: 1,
	})

	extract, err := job.NewJob("extract",
		job.WithFunction(job.LocalFunction{
			Name: "extract",
			Fn: func(args map[string]any) (any, error) {
				fmt.Println("extract: pulling rows")
				return map[string]any{"rows": 42}, nil
			},
		}),
		job.WithTriggerAction(
			trigger.New(trigger.AnyJobStateEventFilter{
				JobNames: []string{"extract"},
				OnStates: []eventlog.JobState{eventlog.StateWaiting},
			}, nil),
			idleAction{},
		),
	)
	if err != nil {
		log.Fatalf("building extract job: %v", err)
	}

	load, err := job.NewJob("load",
		job.WithFunction(job.LocalFunction{
			Name: "load",
			Fn: func(args map[string]any) (any, error) {
				fmt.Println("load: writing rows downstream")
				return nil, nil
			},
		}),
		job.WithTriggerAction(
			trigger.New(
				trigger.AnyJobStateEventFilter{
					JobNames: []string{"extract"},
					OnStates: []eventlog.JobState{eventlog.StateSucceeded},
				},
				nil,
			),
			action.Run{},
		),
	)
	if err != nil {
		log.Fatalf("building load job: %v", err)
	}

	if err := sched.AddJob(extract); err != nil {
		log.Fatalf("adding extract job: %v", err)
	}
	if err := sched.AddJob(load); err != nil {
		log.Fatalf("adding load job: %v", err)
	}
	sched.CreateJobSubscriptions()

	sched.Start()
	defer sched.Stop()

	if err := sched.ManualRun("extract"); err != nil {
		log.Fatalf("manual run: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if sched.AllAreWaiting() {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	for _, name := range []string{"extract", "load"} {
		fmt.Printf("\n%s events:\n", name)
		for _, ev := range sched.EventsOf(name) {
			payload, _ := ev.Payload.(eventlog.JobPayload)
			fmt.Printf("  t=%d state=%s\n", ev.Timestamp, payload.State)
		}
	}
}
