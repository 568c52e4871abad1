package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/ports"
)

// BinanceClient reads 24h ticker statistics from the Binance public API.
type BinanceClient struct {
	endpoint   string
	symbols    []string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.MarketSource = (*BinanceClient)(nil)

// NewBinanceClient builds a client from configuration.
func NewBinanceClient(cfg config.MarketConfig, log *slog.Logger) *BinanceClient {
	return &BinanceClient{
		endpoint:   cfg.Endpoint,
		symbols:    cfg.Symbols,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Snapshot queries every configured symbol. Symbols that fail are skipped,
// so the snapshot may be empty but never errors on partial failure.
func (c *BinanceClient) Snapshot(ctx context.Context) (domain.MarketSnapshot, error) {
	if c == nil || c.endpoint == "" {
		return nil, fmt.Errorf("binance client misconfigured")
	}

	tickers := make([]domain.Ticker, 0, len(c.symbols))
	for _, symbol := range c.symbols {
		t, err := c.ticker(ctx, symbol)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("ticker unavailable", "symbol", symbol, "error", err)
			}
			continue
		}
		tickers = append(tickers, t)
	}
	return domain.NewMarketSnapshot(tickers), nil
}

func (c *BinanceClient) ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("get ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Ticker{}, fmt.Errorf("binance error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var raw ticker24h
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Ticker{}, fmt.Errorf("decode ticker: %w", err)
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("parse last price %q: %w", raw.LastPrice, err)
	}
	change, err := strconv.ParseFloat(raw.PriceChangePercent, 64)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("parse change %q: %w", raw.PriceChangePercent, err)
	}

	return domain.Ticker{Symbol: symbol, Price: price, ChangePercent: change}, nil
}
