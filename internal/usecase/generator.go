package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/content"
	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

const slotLayout = "15:04"

// GeneratorDeps wires the editorial generator.
type GeneratorDeps struct {
	Content  ports.ContentRepository
	Trends   ports.TrendRepository
	Stats    ports.StatsRepository
	Market   ports.MarketSource
	Slots    []config.ScheduleSlot
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Generator produces time-of-day editorial posts.
type Generator struct {
	content  ports.ContentRepository
	trends   ports.TrendRepository
	stats    ports.StatsRepository
	market   ports.MarketSource
	slots    map[string]domain.ContentKind
	location *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// mu guards firedSlot, the "2006-01-02 15:04" key of the last slot generated.
	mu        sync.Mutex
	firedSlot string
}

// NewGenerator indexes the schedule by HH:MM. Slots with an unknown kind are skipped.
func NewGenerator(deps GeneratorDeps) *Generator {
	g := &Generator{
		content:  deps.Content,
		trends:   deps.Trends,
		stats:    deps.Stats,
		market:   deps.Market,
		slots:    make(map[string]domain.ContentKind, len(deps.Slots)),
		location: orUTC(deps.Location),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	for _, slot := range deps.Slots {
		kind, err := domain.ParseContentKind(slot.Kind)
		if err != nil || kind == domain.KindTrendAlert {
			g.log().Warn("schedule slot ignored", "at", slot.At, "kind", slot.Kind)
			continue
		}
		at, err := time.Parse(slotLayout, slot.At)
		if err != nil {
			g.log().Warn("schedule slot ignored", "at", slot.At, "error", err)
			continue
		}
		g.slots[at.Format(slotLayout)] = kind
	}
	return g
}

// SlotAt returns the kind scheduled for now's wall-clock minute, if any.
func (g *Generator) SlotAt(now time.Time) (domain.ContentKind, bool) {
	kind, ok := g.slots[now.In(g.location).Format(slotLayout)]
	return kind, ok
}

// Generate creates the scheduled post for the current minute. It is a no-op
// outside configured slots and for a slot that already fired, and reports
// whether something was queued.
func (g *Generator) Generate(ctx context.Context, now time.Time) (domain.ContentKind, bool, error) {
	kind, ok := g.SlotAt(now)
	if !ok {
		return "", false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := now.In(g.location).Format(dateLayout + " " + slotLayout)
	if key == g.firedSlot {
		return kind, false, nil
	}
	if _, err := g.GenerateKind(ctx, kind, now); err != nil {
		return kind, false, err
	}
	g.firedSlot = key
	return kind, true, nil
}

// GenerateKind builds and queues one editorial post of kind, due immediately.
func (g *Generator) GenerateKind(ctx context.Context, kind domain.ContentKind, now time.Time) (int64, error) {
	if g.content == nil {
		return 0, fmt.Errorf("generator has no content repository")
	}

	body, err := g.render(ctx, kind, now)
	if err != nil {
		return 0, fmt.Errorf("render %s: %w", kind, err)
	}

	id, err := g.content.InsertScheduledContent(ctx, kind, body, now)
	if err != nil {
		return 0, fmt.Errorf("queue %s: %w", kind, err)
	}

	g.metrics.RecordGenerated(string(kind))
	g.log().Info("editorial content queued", "kind", kind, "id", id)
	return id, nil
}

func (g *Generator) render(ctx context.Context, kind domain.ContentKind, now time.Time) (string, error) {
	switch kind {
	case domain.KindMorningBriefing:
		return content.MorningBriefing(g.snapshot(ctx)), nil
	case domain.KindMarketStats:
		return content.MarketStats(g.snapshot(ctx)), nil
	case domain.KindHotTopic:
		from, to := dayBounds(now, g.location)
		var top *domain.TrendObservation
		if g.trends != nil {
			var err error
			if top, err = g.trends.TopTrend(ctx, from, to); err != nil {
				return "", err
			}
		}
		return content.HotTopic(top), nil
	case domain.KindDailySummary:
		var snap domain.StatsSnapshot
		if g.stats != nil {
			from, to := dayBounds(now, g.location)
			var err error
			if snap, err = g.stats.Stats(ctx, dayKey(now, g.location), from, to); err != nil {
				return "", err
			}
		}
		return content.DailySummary(snap.Today.PostsDelivered, snap.TrendsToday, g.snapshot(ctx)), nil
	}
	return "", fmt.Errorf("kind %q is not editorial", kind)
}

// snapshot degrades to an empty market when prices are unavailable.
func (g *Generator) snapshot(ctx context.Context) domain.MarketSnapshot {
	if g.market == nil {
		return nil
	}
	snap, err := g.market.Snapshot(ctx)
	if err != nil {
		g.log().Warn("market snapshot unavailable", "error", err)
		return nil
	}
	return snap
}

func (g *Generator) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}
