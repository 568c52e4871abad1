package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ChannelPublisher/internal/ports"
)

// Ticker runs a job at a fixed interval and waits a backoff instead after a failure.
type Ticker struct {
	interval time.Duration
	retry    backoff.BackOff
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.Scheduler = (*Ticker)(nil)

// NewTicker builds a driver; the first run starts immediately. Every failed
// run is followed by a constant failureDelay pause.
func NewTicker(interval, failureDelay time.Duration, log *slog.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		retry:    backoff.NewConstantBackOff(failureDelay),
		now:      time.Now,
		logger:   log,
	}
}

// Run blocks until ctx is cancelled. Job errors and panics never stop the loop.
func (t *Ticker) Run(ctx context.Context, job ports.Job) error {
	if job == nil {
		return nil
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		wait := t.interval
		if err := t.runOnce(ctx, job); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait = t.retry.NextBackOff()
			t.log().Error("cycle failed", "error", err, "retry_in", wait)
		} else {
			t.retry.Reset()
		}
		timer.Reset(wait)
	}
}

func (t *Ticker) runOnce(ctx context.Context, job ports.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return job(ctx, t.now())
}

func (t *Ticker) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}
