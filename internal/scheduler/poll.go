package scheduler

import (
	"context"
	"time"

	"kongflow/backend/internal/eventlog"
	"kongflow/backend/internal/job"
)

// Start launches the scheduler's cooperative executor and poll loop on
// background goroutines and returns immediately. Call Stop to shut both
// down.
func (s *Scheduler) Start() {
	s.stopPoll = make(chan struct{})
	s.pollDone = make(chan struct{})

	go s.log.Run()
	go s.pollLoop()
}

// Stop signals the poll loop and the executor to shut down, and blocks
// until the poll loop has exited. The executor itself drains any already
// submitted tasks before its own Run returns.
func (s *Scheduler) Stop() {
	if s.stopPoll != nil {
		close(s.stopPoll)
		<-s.pollDone
	}
	s.exec.Stop()
}

// pollLoop implements the background reconciliation task: every
// PollDelay, submit a pass to the cooperative executor that asks the
// primary runner to reconcile state for every job whose latest event is
// RUN_REQUESTED or RUNNING. Errors are logged and never stop the loop
// (PollFailure disposition).
func (s *Scheduler) pollLoop() {
	defer close(s.pollDone)

	delay := s.cfg.pollDelay()
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			s.exec.Submit(s.pollActive)
		}
	}
}

func (s *Scheduler) pollActive() {
	for _, j := range s.activeJobs() {
		ev := s.log.LastEvent(j.Topic(), s.log.CurrTimestamp())
		if ev == nil {
			continue
		}
		payload, ok := ev.Payload.(eventlog.JobPayload)
		if !ok || payload.RequestID == nil {
			continue
		}
		if _, err := s.runner.PollState(context.Background(), j.Topic(), *payload.RequestID); err != nil {
			s.diag.Error("poll failed", map[string]any{
				"job":        j.Name(),
				"request_id": *payload.RequestID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *Scheduler) activeJobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.log.CurrTimestamp()
	var active []*job.Job
	for _, j := range s.jobs {
		ev := s.log.LastEvent(j.Topic(), at)
		if ev == nil {
			continue
		}
		payload, ok := ev.Payload.(eventlog.JobPayload)
		if !ok {
			continue
		}
		if payload.State == eventlog.StateRunRequested || payload.State == eventlog.StateRunning {
			active = append(active, j)
		}
	}
	return active
}
