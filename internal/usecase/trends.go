package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
	"time"

	"ChannelPublisher/internal/content"
	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

// TrendDetectorDeps wires the detector with its feed, store and tuning.
type TrendDetectorDeps struct {
	Feed      ports.TrendFeed
	Trends    ports.TrendRepository
	Keywords  []string
	Threshold int
	JitterMin time.Duration
	JitterMax time.Duration
	Location  *time.Location
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	// RandIntN returns a value in [0, n); defaults to math/rand/v2.IntN.
	RandIntN func(n int) int
}

// TrendDetector counts keyword mentions across trend feeds and records
// the topics that reach the threshold.
type TrendDetector struct {
	feed      ports.TrendFeed
	trends    ports.TrendRepository
	pattern   *regexp.Regexp
	threshold int
	jitterMin int
	jitterMax int
	location  *time.Location
	randIntN  func(n int) int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewTrendDetector compiles the keyword vocabulary into one word-boundary pattern.
func NewTrendDetector(deps TrendDetectorDeps) *TrendDetector {
	d := &TrendDetector{
		feed:      deps.Feed,
		trends:    deps.Trends,
		pattern:   keywordPattern(deps.Keywords),
		threshold: deps.Threshold,
		jitterMin: int(deps.JitterMin / time.Minute),
		jitterMax: int(deps.JitterMax / time.Minute),
		location:  orUTC(deps.Location),
		randIntN:  deps.RandIntN,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if d.randIntN == nil {
		d.randIntN = rand.IntN
	}
	if d.jitterMax < d.jitterMin {
		d.jitterMax = d.jitterMin
	}
	return d
}

func keywordPattern(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Count tallies keyword mentions in snippets, keyed by lower-case keyword.
func (d *TrendDetector) Count(snippets []string) map[string]int {
	counts := make(map[string]int)
	if d.pattern == nil {
		return counts
	}
	for _, snippet := range snippets {
		for _, match := range d.pattern.FindAllString(strings.ToLower(snippet), -1) {
			counts[match]++
		}
	}
	return counts
}

// Detect polls every trend source once, persists each topic at or above the
// threshold together with a jittered alert, and returns those topics ordered by
// score (highest first) then name.
func (d *TrendDetector) Detect(ctx context.Context, now time.Time) ([]domain.TrendObservation, error) {
	if d.feed == nil || d.trends == nil {
		return nil, nil
	}

	var snippets []string
	for _, result := range d.feed.Collect(ctx) {
		if result.Err != nil {
			d.metrics.RecordSourceFailure(result.Source)
			d.log().Warn("trend source failed", "source", result.Source, "error", result.Err)
		}
		for _, c := range result.Candidates {
			snippets = append(snippets, c.Snippet())
		}
	}

	var found []domain.TrendObservation
	for topic, score := range d.Count(snippets) {
		if score < d.threshold {
			continue
		}
		found = append(found, domain.TrendObservation{Topic: topic, Score: score, DetectedAt: now})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].Topic < found[j].Topic
	})

	date := dayKey(now, d.location)
	for _, obs := range found {
		dueAt := now.Add(d.jitter())
		if err := d.trends.RecordTrend(ctx, obs, content.TrendAlert(obs.Topic, obs.Score), dueAt, date); err != nil {
			return nil, fmt.Errorf("record trend %s: %w", obs.Topic, err)
		}
		d.metrics.RecordTrend(obs.Topic)
		d.log().Info("trend detected", "topic", obs.Topic, "score", obs.Score, "alert_due", dueAt)
	}

	d.log().Debug("trend detection done", "snippets", len(snippets), "trends", len(found))
	return found, nil
}

// jitter picks a whole number of minutes uniformly in [jitterMin, jitterMax].
func (d *TrendDetector) jitter() time.Duration {
	span := d.jitterMax - d.jitterMin + 1
	return time.Duration(d.jitterMin+d.randIntN(span)) * time.Minute
}

func (d *TrendDetector) log() *slog.Logger {
	if d.logger == nil {
		return slog.Default()
	}
	return d.logger
}
