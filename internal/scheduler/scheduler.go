// Package scheduler triggers periodic ingestion sweeps.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the part of the ingestion pipeline the scheduler drives.
type Runner interface {
	RunAllActive(ctx context.Context)
}

// Scheduler invokes a sweep over all active sources on a fixed cadence.
// It owns no goroutines: Run blocks until the context is cancelled,
// which is the shutdown path.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler. interval defaults to one hour.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Run starts the sweep loop: one sweep immediately, then one per
// interval. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)
	s.runner.RunAllActive(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runner.RunAllActive(ctx)
		}
	}
}
