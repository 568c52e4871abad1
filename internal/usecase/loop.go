package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ChannelPublisher/internal/metrics"
)

// CycleDeps wires the per-tick steps.
type CycleDeps struct {
	Detector    *TrendDetector
	Generator   *Generator
	Ingestor    *Ingestor
	Publisher   *Publisher
	DetectEvery time.Duration
	IngestEvery time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Cycle runs one background tick: detect when due, generate, ingest when
// due, deliver one. It is driven by a single goroutine.
type Cycle struct {
	detector    *TrendDetector
	generator   *Generator
	ingestor    *Ingestor
	publisher   *Publisher
	detectEvery time.Duration
	ingestEvery time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics

	nextDetectAt time.Time
	nextIngestAt time.Time
}

// NewCycle constructs the loop body. Both due times start at zero so the
// first tick runs every step.
func NewCycle(deps CycleDeps) *Cycle {
	return &Cycle{
		detector:    deps.Detector,
		generator:   deps.Generator,
		ingestor:    deps.Ingestor,
		publisher:   deps.Publisher,
		detectEvery: deps.DetectEvery,
		ingestEvery: deps.IngestEvery,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// Tick performs one pass. Steps after a failed step still run; the joined
// error makes the driver back off before the next tick.
func (c *Cycle) Tick(ctx context.Context, now time.Time) error {
	log := c.log().With("cycle", uuid.NewString())
	log.Debug("tick", "now", now)

	var errs []error

	if c.detector != nil && !now.Before(c.nextDetectAt) {
		c.nextDetectAt = now.Add(c.detectEvery)
		trends, err := c.detector.Detect(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("detect trends: %w", err))
		} else {
			log.Info("trend detection finished", "trends", len(trends), "next", c.nextDetectAt)
		}
	}

	if c.generator != nil {
		if kind, ok, err := c.generator.Generate(ctx, now); err != nil {
			errs = append(errs, fmt.Errorf("generate content: %w", err))
		} else if ok {
			log.Info("scheduled content generated", "kind", kind)
		}
	}

	if c.ingestor != nil && !now.Before(c.nextIngestAt) {
		c.nextIngestAt = now.Add(c.ingestEvery)
		if _, err := c.ingestor.Ingest(ctx, now); err != nil {
			errs = append(errs, fmt.Errorf("ingest news: %w", err))
		}
	}

	if c.publisher != nil {
		if _, err := c.publisher.DeliverNext(ctx, now); err != nil {
			errs = append(errs, fmt.Errorf("deliver: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.metrics.RecordCycleFailure()
		return err
	}
	return nil
}

func (c *Cycle) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
