package domain

import (
	"fmt"
	"time"
)

// ContentKind enumerates scheduled content types.
type ContentKind string

const (
	KindTrendAlert      ContentKind = "trend_alert"
	KindMorningBriefing ContentKind = "morning_briefing"
	KindMarketStats     ContentKind = "market_stats"
	KindHotTopic        ContentKind = "hot_topic"
	KindDailySummary    ContentKind = "daily_summary"
)

// EditorialKinds lists the kinds the content generator can produce.
var EditorialKinds = []ContentKind{KindMorningBriefing, KindMarketStats, KindHotTopic, KindDailySummary}

// ParseContentKind validates a kind name supplied by config or an operator.
func ParseContentKind(value string) (ContentKind, error) {
	kind := ContentKind(value)
	switch kind {
	case KindTrendAlert, KindMorningBriefing, KindMarketStats, KindHotTopic, KindDailySummary:
		return kind, nil
	}
	return "", fmt.Errorf("unknown content kind %q", value)
}

// ScheduledContent is a pre-rendered post that becomes eligible once due.
type ScheduledContent struct {
	ID        int64
	Kind      ContentKind
	Body      string
	DueAt     time.Time
	Delivered bool
	CreatedAt time.Time
}

// TrendObservation is one scored topic from a detection pass.
type TrendObservation struct {
	ID         int64
	Topic      string
	Score      int
	DetectedAt time.Time
}

// DailyCounters aggregates per calendar date.
type DailyCounters struct {
	Date           string
	PostsDelivered int
	TrendsDetected int
}

// StatsSnapshot backs the operator statistics view.
type StatsSnapshot struct {
	TotalItems      int
	DeliveredItems  int
	QueuedItems     int
	QueuedScheduled int
	TrendsToday     int
	Today           DailyCounters
}
