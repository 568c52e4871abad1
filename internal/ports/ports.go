package ports

import (
	"context"
	"time"

	"ChannelPublisher/internal/domain"
)

// FeedSource fetches the newest entries of a single feed.
type FeedSource interface {
	Fetch(ctx context.Context, source, feedURL string, limit int) ([]domain.Candidate, error)
}

// TrendFeed gathers snippets from every configured trend source, one result per source.
type TrendFeed interface {
	Collect(ctx context.Context) []domain.SourceResult
}

// MarketSource returns the current ticker snapshot; symbols that fail are omitted.
type MarketSource interface {
	Snapshot(ctx context.Context) (domain.MarketSnapshot, error)
}

// Translator converts text to the target locale.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Sender posts one message to the output channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// ItemRepository persists discovered items.
type ItemRepository interface {
	ItemExists(ctx context.Context, externalID string) (bool, error)
	InsertDiscoveredItem(ctx context.Context, item domain.DiscoveredItem) (int64, error)
}

// ContentRepository persists scheduled content.
type ContentRepository interface {
	InsertScheduledContent(ctx context.Context, kind domain.ContentKind, body string, dueAt time.Time) (int64, error)
}

// TrendRepository persists and queries trend observations.
type TrendRepository interface {
	InsertTrendObservation(ctx context.Context, topic string, score int, at time.Time) (int64, error)
	RecordTrend(ctx context.Context, obs domain.TrendObservation, alertBody string, alertDueAt time.Time, date string) error
	TopTrend(ctx context.Context, from, to time.Time) (*domain.TrendObservation, error)
}

// DeliveryQueue selects and settles queued rows.
type DeliveryQueue interface {
	ClaimNext(ctx context.Context, now time.Time, lease time.Duration) (*domain.Deliverable, error)
	CompleteDelivery(ctx context.Context, ref domain.DeliverableRef, date string) error
	ReleaseClaim(ctx context.Context, ref domain.DeliverableRef) error
	MarkDelivered(ctx context.Context, ref domain.DeliverableRef) error
}

// StatsRepository exposes counters for reporting.
type StatsRepository interface {
	IncrementDailyCounters(ctx context.Context, date string, postsDelta, trendsDelta int) error
	Stats(ctx context.Context, date string, from, to time.Time) (domain.StatsSnapshot, error)
}

// Store is the full persistent store contract.
type Store interface {
	ItemRepository
	ContentRepository
	TrendRepository
	DeliveryQueue
	StatsRepository
	Close() error
}

// CommandHandler answers operator commands with short text.
type CommandHandler interface {
	Handle(ctx context.Context, name string, args []string) string
}

// Job is one unit of scheduled work.
type Job func(ctx context.Context, now time.Time) error

// Scheduler drives a job until the context is cancelled.
type Scheduler interface {
	Run(ctx context.Context, job Job) error
}
