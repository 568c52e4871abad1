package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/infrastructure/ratelimit"
	"ChannelPublisher/internal/ports"
)

// Source fetches RSS/Atom feeds with gofeed.
type Source struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.HostLimiter
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource builds a feed source; limiter may be nil.
func NewSource(timeout time.Duration, userAgent string, limiter *ratelimit.HostLimiter) *Source {
	return &Source{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   limiter,
	}
}

// Fetch returns at most limit entries from feedURL, newest first as the feed lists them.
func (s *Source) Fetch(ctx context.Context, source, feedURL string, limit int) ([]domain.Candidate, error) {
	if err := s.limiter.Wait(ctx, feedURL); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", feedURL, err)
	}

	parser := gofeed.NewParser()
	parser.Client = s.client
	parser.UserAgent = s.userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	candidates := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		candidate := domain.Candidate{
			ExternalID: externalID(item),
			Title:      strings.TrimSpace(item.Title),
			Summary:    item.Description,
			Source:     source,
		}
		if candidate.Summary == "" {
			candidate.Summary = item.Content
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func externalID(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	return strings.TrimSpace(item.GUID)
}
