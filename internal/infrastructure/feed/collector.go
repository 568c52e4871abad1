package feed

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/ports"
)

const collectParallelism = 4

// Collector polls every configured trend source and reports one result per source.
type Collector struct {
	fetcher ports.FeedSource
	sources []config.TrendSource
	limit   int
	logger  *slog.Logger
}

var _ ports.TrendFeed = (*Collector)(nil)

// NewCollector wires a feed fetcher with config-defined trend sources.
func NewCollector(fetcher ports.FeedSource, sources []config.TrendSource, entriesPerFeed int, log *slog.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		sources: sources,
		limit:   entriesPerFeed,
		logger:  log,
	}
}

// Collect fetches all feeds of all sources. A failed feed is recorded in its
// source's Err while the source's other feeds still contribute candidates.
func (c *Collector) Collect(ctx context.Context) []domain.SourceResult {
	results := make([]domain.SourceResult, len(c.sources))
	if c.fetcher == nil {
		return results
	}

	c.debug("collect trend sources", "sources", len(c.sources))

	var g errgroup.Group
	g.SetLimit(collectParallelism)
	for i, src := range c.sources {
		results[i].Source = src.Name
		g.Go(func() error {
			results[i] = c.collectSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Collector) collectSource(ctx context.Context, src config.TrendSource) domain.SourceResult {
	result := domain.SourceResult{Source: src.Name}

	var errs []error
	for _, url := range src.URLs {
		candidates, err := c.fetcher.Fetch(ctx, src.Name, url, c.limit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result.Candidates = append(result.Candidates, candidates...)
	}
	result.Err = errors.Join(errs...)

	c.debug("source collected", "source", src.Name, "candidates", len(result.Candidates), "failed_feeds", len(errs))
	return result
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
