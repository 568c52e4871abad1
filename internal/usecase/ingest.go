package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/content"
	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

// IngestorDeps wires discovery ingest.
type IngestorDeps struct {
	Feeds            ports.FeedSource
	Items            ports.ItemRepository
	Translator       ports.Translator
	Sources          []config.FeedSource
	EntriesPerSource int
	SummaryMaxLength int
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

// Ingestor finds the first never-seen entry across ordered news feeds.
type Ingestor struct {
	feeds      ports.FeedSource
	items      ports.ItemRepository
	translator ports.Translator
	sources    []config.FeedSource
	entries    int
	maxSummary int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewIngestor constructs the ingest use case.
func NewIngestor(deps IngestorDeps) *Ingestor {
	return &Ingestor{
		feeds:      deps.Feeds,
		items:      deps.Items,
		translator: deps.Translator,
		sources:    deps.Sources,
		entries:    deps.EntriesPerSource,
		maxSummary: deps.SummaryMaxLength,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// Ingest persists at most one new item and returns it, or nil when every
// inspected entry was already known. Feed failures skip to the next source.
func (i *Ingestor) Ingest(ctx context.Context, now time.Time) (*domain.DiscoveredItem, error) {
	if i.feeds == nil || i.items == nil {
		return nil, nil
	}

	for _, src := range i.sources {
		candidates, err := i.feeds.Fetch(ctx, src.Name, src.URL, i.entries)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			i.metrics.RecordSourceFailure(src.Name)
			i.log().Warn("news source failed", "source", src.Name, "error", err)
			continue
		}

		for _, candidate := range candidates {
			if candidate.ExternalID == "" {
				continue
			}
			seen, err := i.items.ItemExists(ctx, candidate.ExternalID)
			if err != nil {
				return nil, fmt.Errorf("check %s: %w", candidate.ExternalID, err)
			}
			if seen {
				continue
			}

			item := i.prepare(ctx, candidate, now)
			id, err := i.items.InsertDiscoveredItem(ctx, item)
			if errors.Is(err, domain.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("persist %s: %w", candidate.ExternalID, err)
			}
			item.ID = id

			i.metrics.RecordIngested(string(item.Category))
			i.log().Info("item discovered", "source", item.Source, "category", item.Category, "id", id)
			return &item, nil
		}
	}

	i.log().Debug("no new items")
	return nil, nil
}

func (i *Ingestor) prepare(ctx context.Context, c domain.Candidate, now time.Time) domain.DiscoveredItem {
	title := content.CleanTitle(c.Title)
	return domain.DiscoveredItem{
		ExternalID: c.ExternalID,
		Title:      i.translate(ctx, title),
		Summary:    content.LeadSentence(c.Summary, i.maxSummary),
		Source:     c.Source,
		Category:   content.Classify(c.Title),
		CreatedAt:  now,
	}
}

// translate falls back to the original text on any failure.
func (i *Ingestor) translate(ctx context.Context, text string) string {
	if i.translator == nil || text == "" {
		return text
	}
	translated, err := i.translator.Translate(ctx, text)
	if err != nil || translated == "" {
		if err != nil {
			i.log().Debug("translation failed, keeping original", "error", err)
		}
		return text
	}
	return translated
}

func (i *Ingestor) log() *slog.Logger {
	if i.logger == nil {
		return slog.Default()
	}
	return i.logger
}
