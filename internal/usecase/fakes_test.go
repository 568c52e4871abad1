package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/infrastructure/storage"
	"ChannelPublisher/internal/logging"
)

var (
	testNow    = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	testLogger = logging.Discard()
)

func openStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "publisher.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

type fakeTrendFeed struct {
	results []domain.SourceResult
	calls   int
}

func (f *fakeTrendFeed) Collect(context.Context) []domain.SourceResult {
	f.calls++
	return f.results
}

func snippets(source string, titles ...string) domain.SourceResult {
	res := domain.SourceResult{Source: source}
	for _, title := range titles {
		res.Candidates = append(res.Candidates, domain.Candidate{Title: title, Source: source})
	}
	return res
}

type fakeFeedSource struct {
	mu    sync.Mutex
	feeds map[string][]domain.Candidate
	calls []string
}

func (f *fakeFeedSource) Fetch(_ context.Context, source, feedURL string, limit int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, source)

	entries, ok := f.feeds[feedURL]
	if !ok {
		return nil, fmt.Errorf("fetch %s: timeout", feedURL)
	}
	out := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		e.Source = source
		out = append(out, e)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeTranslator struct {
	prefix string
	err    error
}

func (f fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + text, nil
}

type fakeSender struct {
	mu       sync.Mutex
	failures int
	attempts int
	sent     []string
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("telegram error 502: Bad Gateway")
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeMarket struct {
	snap domain.MarketSnapshot
	err  error
}

func (f fakeMarket) Snapshot(context.Context) (domain.MarketSnapshot, error) {
	return f.snap, f.err
}

// racyItems simulates another writer inserting the same id between the
// existence check and the insert.
type racyItems struct {
	store       *storage.SQLiteRepository
	stolenIDs   map[string]bool
	insertCalls int
}

func (r *racyItems) ItemExists(ctx context.Context, externalID string) (bool, error) {
	return r.store.ItemExists(ctx, externalID)
}

func (r *racyItems) InsertDiscoveredItem(ctx context.Context, item domain.DiscoveredItem) (int64, error) {
	r.insertCalls++
	if r.stolenIDs[item.ExternalID] {
		if _, err := r.store.InsertDiscoveredItem(ctx, item); err != nil {
			return 0, err
		}
	}
	return r.store.InsertDiscoveredItem(ctx, item)
}
