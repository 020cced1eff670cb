// Package scheduler runs fixed-interval background jobs.
//
// It wraps gocron and is used for housekeeping sweeps such as expiring
// stale pronunciation expectations and resetting per-session message
// counters.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs named jobs at fixed intervals.
type Scheduler struct {
	sched gocron.Scheduler
}

// NewScheduler creates a scheduler. Jobs do not run until Start is called.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{sched: s}, nil
}

// Every registers task to run at the given interval. The name is used for
// logging only. A panicking task is logged and does not take the scheduler
// down.
func (s *Scheduler) Every(interval time.Duration, name string, task func()) error {
	_, err := s.sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Scheduler: job panicked", "job", name, "panic", r)
			}
		}()
		task()
	}))
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}
	slog.Debug("Scheduler: job registered", "job", name, "interval", interval)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop shuts the scheduler down and waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
