package domain

import (
	"math"
	"sort"
)

// Ticker is the 24h state of one traded symbol.
type Ticker struct {
	Symbol        string
	Price         float64
	ChangePercent float64
}

// MarketSnapshot holds tickers ordered by absolute change, largest first.
type MarketSnapshot []Ticker

// NewMarketSnapshot sorts tickers by absolute 24h change descending.
func NewMarketSnapshot(tickers []Ticker) MarketSnapshot {
	out := make(MarketSnapshot, len(tickers))
	copy(out, tickers)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ChangePercent) > math.Abs(out[j].ChangePercent)
	})
	return out
}

// TopMovers returns at most n tickers.
func (m MarketSnapshot) TopMovers(n int) []Ticker {
	if n > len(m) {
		n = len(m)
	}
	return m[:n]
}

// Volatile reports whether any ticker moved more than limit percent either way.
func (m MarketSnapshot) Volatile(limit float64) bool {
	for _, t := range m {
		if math.Abs(t.ChangePercent) > limit {
			return true
		}
	}
	return false
}
