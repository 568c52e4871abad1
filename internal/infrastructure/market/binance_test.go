package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/config"
)

func TestSnapshotSkipsFailingSymbolsAndSorts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "BTCUSDT":
			fmt.Fprint(w, `{"symbol":"BTCUSDT","lastPrice":"67000.10","priceChangePercent":"1.50"}`)
		case "JASMYUSDT":
			fmt.Fprint(w, `{"symbol":"JASMYUSDT","lastPrice":"0.01934","priceChangePercent":"-7.25"}`)
		case "ETHUSDT":
			fmt.Fprint(w, `{"symbol":"ETHUSDT","lastPrice":"oops","priceChangePercent":"2"}`)
		default:
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewBinanceClient(config.MarketConfig{
		Endpoint: srv.URL,
		Symbols:  []string{"BTCUSDT", "ETHUSDT", "NOPEUSDT", "JASMYUSDT"},
		Timeout:  time.Second,
	}, nil)

	snap, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)

	assert.Equal(t, "JASMYUSDT", snap[0].Symbol)
	assert.InDelta(t, 0.01934, snap[0].Price, 1e-9)
	assert.InDelta(t, -7.25, snap[0].ChangePercent, 1e-9)
	assert.Equal(t, "BTCUSDT", snap[1].Symbol)
}

func TestSnapshotAllFailuresIsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewBinanceClient(config.MarketConfig{Endpoint: srv.URL, Symbols: []string{"BTCUSDT"}, Timeout: time.Second}, nil)
	snap, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestSnapshotMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewBinanceClient(config.MarketConfig{}, nil).Snapshot(context.Background())
	assert.Error(t, err)
}
