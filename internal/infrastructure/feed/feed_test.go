package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Crypto Wire</title>
  <item>
    <title>Bitcoin ETF Approved</title>
    <link>https://example.com/etf</link>
    <description><![CDATA[<p>Regulators signed off.</p>]]></description>
    <pubDate>Sat, 14 Mar 2026 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Ethereum upgrade scheduled</title>
    <guid>urn:eth-upgrade</guid>
    <description>Devs agreed on a date.</description>
  </item>
  <item>
    <title>Third entry</title>
    <link>https://example.com/third</link>
  </item>
</channel>
</rss>`

func TestSourceFetchMapsEntries(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case agents <- r.Header.Get("User-Agent"):
		default:
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleRSS)
	}))
	t.Cleanup(srv.Close)

	src := NewSource(2*time.Second, "ChannelPublisher/test", nil)
	candidates, err := src.Fetch(context.Background(), "wire", srv.URL, 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "ChannelPublisher/test", <-agents)
	assert.Equal(t, "https://example.com/etf", candidates[0].ExternalID)
	assert.Equal(t, "Bitcoin ETF Approved", candidates[0].Title)
	assert.Contains(t, candidates[0].Summary, "Regulators signed off.")
	assert.Equal(t, "wire", candidates[0].Source)

	assert.Equal(t, "urn:eth-upgrade", candidates[1].ExternalID)
}

func TestSourceFetchReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewSource(time.Second, "ua", nil).Fetch(context.Background(), "wire", srv.URL, 5)
	assert.Error(t, err)
}

type stubFetcher struct {
	feeds map[string][]domain.Candidate
}

func (s stubFetcher) Fetch(_ context.Context, source, feedURL string, limit int) ([]domain.Candidate, error) {
	entries, ok := s.feeds[feedURL]
	if !ok {
		return nil, fmt.Errorf("fetch %s: connection refused", feedURL)
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

func TestCollectorKeepsPartialResults(t *testing.T) {
	t.Parallel()

	fetcher := stubFetcher{feeds: map[string][]domain.Candidate{
		"https://a/rss": {{Title: "eth one"}, {Title: "eth two"}},
		"https://c/rss": {{Title: "btc"}},
	}}
	sources := []config.TrendSource{
		{Name: "social", URLs: []string{"https://a/rss", "https://b/rss"}},
		{Name: "news", URLs: []string{"https://c/rss"}},
		{Name: "dead", URLs: []string{"https://d/rss"}},
	}

	results := NewCollector(fetcher, sources, 20, nil).Collect(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, "social", results[0].Source)
	assert.Len(t, results[0].Candidates, 2)
	require.Error(t, results[0].Err)
	assert.True(t, strings.Contains(results[0].Err.Error(), "https://b/rss"))

	assert.Equal(t, "news", results[1].Source)
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Candidates, 1)

	assert.Empty(t, results[2].Candidates)
	assert.Error(t, results[2].Err)
}
