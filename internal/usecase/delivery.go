package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ChannelPublisher/internal/content"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

// PublisherDeps wires the delivery step.
type PublisherDeps struct {
	Queue    ports.DeliveryQueue
	Sender   ports.Sender
	Lease    time.Duration
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Publisher sends at most one queued post per call.
type Publisher struct {
	queue    ports.DeliveryQueue
	sender   ports.Sender
	lease    time.Duration
	location *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPublisher constructs the delivery use case.
func NewPublisher(deps PublisherDeps) *Publisher {
	return &Publisher{
		queue:    deps.Queue,
		sender:   deps.Sender,
		lease:    deps.Lease,
		location: orUTC(deps.Location),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// DeliverNext claims the next deliverable and sends it. A failed send releases
// the claim so the row is retried later; it is not reported as an error.
// Only store failures are returned.
func (p *Publisher) DeliverNext(ctx context.Context, now time.Time) (bool, error) {
	if p.queue == nil || p.sender == nil {
		return false, nil
	}

	next, err := p.queue.ClaimNext(ctx, now, p.lease)
	if err != nil {
		return false, fmt.Errorf("claim next: %w", err)
	}
	if next == nil {
		return false, nil
	}

	label := next.Label()
	body := content.Deliverable(*next)
	if body == "" {
		p.log().Warn("dropping empty deliverable", "ref", next.Ref.String())
		if err := p.queue.MarkDelivered(ctx, next.Ref); err != nil {
			return false, fmt.Errorf("drop %s: %w", next.Ref, err)
		}
		return false, nil
	}

	started := time.Now()
	if err := p.sender.Send(ctx, body); err != nil {
		p.metrics.RecordSendFailure(label, time.Since(started))
		p.log().Warn("send failed, will retry", "ref", next.Ref.String(), "kind", label, "error", err)
		if relErr := p.queue.ReleaseClaim(ctx, next.Ref); relErr != nil {
			return false, fmt.Errorf("release %s: %w", next.Ref, relErr)
		}
		return false, nil
	}
	p.metrics.RecordDelivery(label, time.Since(started))

	if err := p.queue.CompleteDelivery(ctx, next.Ref, dayKey(now, p.location)); err != nil {
		return true, fmt.Errorf("complete %s: %w", next.Ref, err)
	}

	p.log().Info("post delivered", "ref", next.Ref.String(), "kind", label)
	return true, nil
}

func (p *Publisher) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}
