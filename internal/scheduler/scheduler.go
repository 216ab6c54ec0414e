// Package scheduler runs the ingestion pipeline on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the full extract/refine/sync pipeline periodically,
// with an immediate run on startup.
type Scheduler struct {
	cron *cron.Cron
	run  func(ctx context.Context)
}

// New creates a Scheduler around the given pipeline run function.
func New(run func(ctx context.Context)) *Scheduler {
	return &Scheduler{cron: cron.New(), run: run}
}

// Start schedules the pipeline every intervalHours and kicks off one run
// right away in the background.
func (s *Scheduler) Start(ctx context.Context, intervalHours int) error {
	spec := fmt.Sprintf("@every %dh", intervalHours)
	if _, err := s.cron.AddFunc(spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule pipeline: %w", err)
	}
	s.cron.Start()
	log.Printf("[scheduler] pipeline scheduled %s", spec)

	go s.run(ctx)
	return nil
}

// Stop halts the cron loop. Runs already in flight finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
