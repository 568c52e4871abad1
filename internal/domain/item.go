package domain

import (
	"errors"
	"time"
)

// ErrDuplicateKey is returned by the store when an external identifier is already present.
var ErrDuplicateKey = errors.New("duplicate external id")

// Category classifies a discovered item and selects its post banner.
type Category string

const (
	CategoryBreaking Category = "breaking"
	CategoryWarning  Category = "warning"
	CategoryAnalysis Category = "analysis"
	CategoryRegular  Category = "regular"
)

// Priority orders categories in the delivery queue; lower is delivered first.
func (c Category) Priority() int {
	switch c {
	case CategoryBreaking:
		return 1
	case CategoryWarning:
		return 2
	case CategoryAnalysis:
		return 3
	default:
		return 4
	}
}

// Candidate is a raw feed entry before dedup and classification.
type Candidate struct {
	ExternalID string
	Title      string
	Summary    string
	Source     string
}

// Snippet is the text the trend detector scans.
func (c Candidate) Snippet() string {
	if c.Summary == "" {
		return c.Title
	}
	return c.Title + " " + c.Summary
}

// SourceResult is the outcome of polling one named source.
type SourceResult struct {
	Source     string
	Candidates []Candidate
	Err        error
}

// DiscoveredItem is a news entry persisted by ingest and later delivered.
type DiscoveredItem struct {
	ID         int64
	ExternalID string
	Title      string
	Summary    string
	Source     string
	Category   Category
	Delivered  bool
	CreatedAt  time.Time
}
