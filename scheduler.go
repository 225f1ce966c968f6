package main

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"marketbrief/observability"
)

// Scheduler triggers report runs on a cron schedule. The standard 5-field
// spec applies, so the default "0 7 * * 6" fires Saturday 07:00 local time.
type Scheduler struct {
	cron *cron.Cron
	job  func()
}

// NewScheduler creates a Scheduler that invokes job per the cron spec
func NewScheduler(spec string, job func()) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{cron: c, job: job}, nil
}

// Start begins the schedule. With runOnStart a run fires immediately in the
// calling goroutine before the timer takes over.
func (s *Scheduler) Start(runOnStart bool) {
	if runOnStart {
		observability.Info("Running initial report before entering schedule")
		s.job()
	}
	s.cron.Start()
	observability.Info("Scheduler started")
}

// Stop halts the schedule and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	observability.Info("Scheduler stopped")
}
