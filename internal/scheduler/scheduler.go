// Package scheduler runs a job on a fixed wall-clock aligned interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
)

// Scheduler fires a job every interval, aligned to interval boundaries:
// with a one hour interval the job runs at the top of each hour. Job
// errors are logged; the schedule keeps going.
type Scheduler struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context) error
}

// New creates a scheduler for the named job.
func New(name string, interval time.Duration, job func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
	}
}

// Run blocks until the context is cancelled, firing the job at each
// interval boundary.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started",
		slog.String("job", s.name),
		slog.Duration("interval", s.interval),
	)

	for {
		wait := time.Until(time.Now().Truncate(s.interval).Add(s.interval))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("scheduler stopped", slog.String("job", s.name))
			return
		case <-timer.C:
		}

		if err := s.job(ctx); err != nil {
			slog.Error("scheduled job failed",
				slog.String("job", s.name),
				logging.Error(err),
			)
		}
	}
}
