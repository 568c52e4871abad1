package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/infrastructure/storage"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
)

type cycleFixture struct {
	store  *storage.SQLiteRepository
	trends *fakeTrendFeed
	news   *fakeFeedSource
	sender *fakeSender
	cycle  *Cycle
	m      *metrics.Metrics
}

func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()
	f := &cycleFixture{
		store: openStore(t),
		trends: &fakeTrendFeed{results: []domain.SourceResult{
			snippets("news", "defi summer", "DeFi yields", "defi hacks"),
		}},
		news: &fakeFeedSource{feeds: map[string][]domain.Candidate{
			"https://ct/rss": {
				{ExternalID: "https://ct/1", Title: "Bitcoin ETF Approved"},
				{ExternalID: "https://ct/2", Title: "Breaking: exchange halts"},
			},
		}},
		sender: &fakeSender{},
		m:      metrics.New(),
	}

	f.cycle = NewCycle(CycleDeps{
		Detector:  newDetector(f.trends, f.store, func(int) int { return 0 }),
		Generator: newGenerator(f.store, fakeMarket{}, time.UTC),
		Ingestor:  newIngestor(f.news, f.store, nil),
		Publisher: NewPublisher(PublisherDeps{
			Queue: f.store, Sender: f.sender, Lease: 5 * time.Minute, Logger: testLogger,
		}),
		DetectEvery: 2 * time.Hour,
		IngestEvery: 10 * time.Minute,
		Logger:      testLogger,
		Metrics:     f.m,
	})
	return f
}

func TestCycleRunsStepsOnTheirCadence(t *testing.T) {
	t.Parallel()
	f := newCycleFixture(t)
	ctx := context.Background()

	// First tick: detect, ingest (one item) and deliver it.
	require.NoError(t, f.cycle.Tick(ctx, testNow))
	assert.Equal(t, 1, f.trends.calls)
	assert.Len(t, f.news.calls, 1)
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "Bitcoin ETF Approved")

	// One minute later nothing is due; the trend alert waits for its jitter.
	require.NoError(t, f.cycle.Tick(ctx, testNow.Add(time.Minute)))
	assert.Equal(t, 1, f.trends.calls)
	assert.Len(t, f.news.calls, 1)
	assert.Len(t, f.sender.sent, 1)

	// After five minutes the alert is due.
	require.NoError(t, f.cycle.Tick(ctx, testNow.Add(5*time.Minute)))
	require.Len(t, f.sender.sent, 2)
	assert.Contains(t, f.sender.sent[1], "DEFI is gaining traction")

	// Ten minutes after the first ingest the next item is picked up.
	require.NoError(t, f.cycle.Tick(ctx, testNow.Add(10*time.Minute)))
	assert.Len(t, f.news.calls, 2)
	require.Len(t, f.sender.sent, 3)
	assert.Contains(t, f.sender.sent[2], "🚨 BREAKING")

	require.NoError(t, f.cycle.Tick(ctx, testNow.Add(2*time.Hour)))
	assert.Equal(t, 2, f.trends.calls)
}

func TestCycleGeneratesAtSlotAndDeliversSameTick(t *testing.T) {
	t.Parallel()
	f := newCycleFixture(t)
	f.trends.results = nil
	f.news.feeds = nil

	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	require.NoError(t, f.cycle.Tick(context.Background(), at))
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "HOT TOPIC OF THE DAY")
}

func TestCycleReportsStoreFailure(t *testing.T) {
	t.Parallel()
	f := newCycleFixture(t)
	require.NoError(t, f.store.Close())

	err := f.cycle.Tick(context.Background(), testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detect trends")
	assert.Contains(t, err.Error(), "deliver")
}

type onceDriver struct{ now time.Time }

func (d onceDriver) Run(ctx context.Context, job ports.Job) error {
	return job(ctx, d.now)
}

func TestSchedulerDrivesCycle(t *testing.T) {
	t.Parallel()
	f := newCycleFixture(t)

	require.NoError(t, NewScheduler(onceDriver{now: testNow}, f.cycle).Run(context.Background()))
	assert.Len(t, f.sender.sent, 1)
	assert.NoError(t, NewScheduler(nil, nil).Run(context.Background()))
}

type brokenQueue struct{}

func (brokenQueue) ClaimNext(context.Context, time.Time, time.Duration) (*domain.Deliverable, error) {
	return nil, errors.New("database is locked")
}

func (brokenQueue) CompleteDelivery(context.Context, domain.DeliverableRef, string) error { return nil }
func (brokenQueue) ReleaseClaim(context.Context, domain.DeliverableRef) error { return nil }
func (brokenQueue) MarkDelivered(context.Context, domain.DeliverableRef) error { return nil }

func TestCycleRetryInSlotMinuteQueuesColumnOnce(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	cycle := NewCycle(CycleDeps{
		Generator: newGenerator(store, fakeMarket{}, time.UTC),
		Publisher: NewPublisher(PublisherDeps{Queue: brokenQueue{}, Sender: &fakeSender{}, Logger: testLogger}),
		Logger:    testLogger,
	})

	at := time.Date(2026, 3, 14, 9, 0, 5, 0, time.UTC)
	require.Error(t, cycle.Tick(context.Background(), at))
	require.Error(t, cycle.Tick(context.Background(), at.Add(30*time.Second)))

	snap, err := store.Stats(context.Background(), "2026-03-14", at, at)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.QueuedScheduled)
}
