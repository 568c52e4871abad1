package usecase

import (
	"context"

	"ChannelPublisher/internal/ports"
)

// Scheduler wires the tick driver with the publishing cycle.
type Scheduler struct {
	driver ports.Scheduler
	cycle  *Cycle
}

// NewScheduler returns the background loop.
func NewScheduler(driver ports.Scheduler, cycle *Cycle) *Scheduler {
	return &Scheduler{driver: driver, cycle: cycle}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	return s.driver.Run(ctx, s.cycle.Tick)
}
