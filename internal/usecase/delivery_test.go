package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/infrastructure/storage"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

func newPublisher(store *storage.SQLiteRepository, sender ports.Sender, m *metrics.Metrics) *Publisher {
	return NewPublisher(PublisherDeps{
		Queue:   store,
		Sender:  sender,
		Lease:   5 * time.Minute,
		Logger:  testLogger,
		Metrics: m,
	})
}

func TestDeliverSendFailureThenSuccess(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	_, err := store.InsertDiscoveredItem(ctx, domain.DiscoveredItem{
		ExternalID: "https://ct/etf",
		Title:      "Bitcoin ETF Approved",
		Source:     "cointelegraph",
		Category:   domain.CategoryRegular,
		CreatedAt:  testNow,
	})
	require.NoError(t, err)

	sender := &fakeSender{failures: 1}
	pub := newPublisher(store, sender, nil)

	sent, err := pub.DeliverNext(ctx, testNow)
	require.NoError(t, err, "a failed send is not a cycle failure")
	assert.False(t, sent)

	from, to := dayBounds(testNow, time.UTC)
	snap, err := store.Stats(ctx, "2026-03-14", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.QueuedItems)
	assert.Equal(t, 0, snap.Today.PostsDelivered)

	sent, err = pub.DeliverNext(ctx, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = pub.DeliverNext(ctx, testNow.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, sent)

	snap, err = store.Stats(ctx, "2026-03-14", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.DeliveredItems)
	assert.Equal(t, 0, snap.QueuedItems)
	assert.Equal(t, 1, snap.Today.PostsDelivered)

	assert.Equal(t, 2, sender.attempts)
	require.Len(t, sender.sent, 1)
	assert.True(t, strings.HasPrefix(sender.sent[0], "📰 Bitcoin ETF Approved"))
	assert.True(t, strings.HasSuffix(sender.sent[0], "#regular #bitcoin"))
}

func TestDeliverScheduledBeforeWarningItem(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	_, err := store.InsertDiscoveredItem(ctx, domain.DiscoveredItem{
		ExternalID: "https://x/hack", Title: "Bridge hack", Category: domain.CategoryWarning, CreatedAt: testNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = store.InsertScheduledContent(ctx, domain.KindMorningBriefing, "🌅 MORNING BRIEFING", testNow.Add(-10*time.Minute))
	require.NoError(t, err)

	sender := &fakeSender{}
	m := metrics.New()
	pub := newPublisher(store, sender, m)

	for i := 0; i < 2; i++ {
		sent, err := pub.DeliverNext(ctx, testNow)
		require.NoError(t, err)
		require.True(t, sent)
	}

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "🌅 MORNING BRIEFING", sender.sent[0])
	assert.True(t, strings.HasPrefix(sender.sent[1], "🔔 WARNING\nBridge hack"))
}

func TestDeliverCountsEveryPost(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		_, err := store.InsertScheduledContent(ctx, domain.KindHotTopic, "post", testNow)
		require.NoError(t, err)
	}

	pub := newPublisher(store, &fakeSender{}, nil)
	for i := 0; i < n+1; i++ {
		_, err := pub.DeliverNext(ctx, testNow)
		require.NoError(t, err)
	}

	from, to := dayBounds(testNow, time.UTC)
	snap, err := store.Stats(ctx, "2026-03-14", from, to)
	require.NoError(t, err)
	assert.Equal(t, n, snap.Today.PostsDelivered)
	assert.Zero(t, snap.QueuedScheduled)
}

func TestDeliverEmptyQueue(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	sender := &fakeSender{}
	sent, err := newPublisher(store, sender, nil).DeliverNext(context.Background(), testNow)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, sender.attempts)
}

func TestDeliverStoreFailureIsReported(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	require.NoError(t, store.Close())

	_, err := newPublisher(store, &fakeSender{}, nil).DeliverNext(context.Background(), testNow)
	assert.Error(t, err)
}

func TestDeliverConcurrentWithCommandTriggeredWork(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	const preloaded = 30
	for i := 0; i < preloaded; i++ {
		_, err := store.InsertScheduledContent(ctx, domain.KindHotTopic, fmt.Sprintf("post %d", i), testNow)
		require.NoError(t, err)
	}

	feeds := &fakeFeedSource{feeds: map[string][]domain.Candidate{
		"https://ct/rss": {
			{ExternalID: "https://ct/1", Title: "first story"},
			{ExternalID: "https://ct/2", Title: "second story"},
			{ExternalID: "https://ct/3", Title: "third story"},
		},
	}}
	ingestor := newIngestor(feeds, store, nil)
	generator := newGenerator(store, fakeMarket{}, time.UTC)
	sender := &fakeSender{}
	pub := newPublisher(store, sender, nil)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < preloaded; i++ {
				_, err := pub.DeliverNext(ctx, testNow)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			_, err := ingestor.Ingest(ctx, testNow)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for _, kind := range []domain.ContentKind{domain.KindMarketStats, domain.KindDailySummary} {
			_, err := generator.GenerateKind(ctx, kind, testNow)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	for {
		sent, err := pub.DeliverNext(ctx, testNow)
		require.NoError(t, err)
		if !sent {
			break
		}
	}

	const total = preloaded + 3 + 2
	from, to := dayBounds(testNow, time.UTC)
	snap, err := store.Stats(ctx, "2026-03-14", from, to)
	require.NoError(t, err)
	assert.Equal(t, total, snap.Today.PostsDelivered)
	assert.Zero(t, snap.QueuedItems)
	assert.Zero(t, snap.QueuedScheduled)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, total)
	seen := make(map[string]bool, total)
	for _, body := range sender.sent {
		assert.False(t, seen[body], "sent twice: %q", body)
		seen[body] = true
	}
}
