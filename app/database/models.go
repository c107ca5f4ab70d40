package database

import (
	"encoding/json"
	"time"
)

type Feed struct {
	ID        string // Database UUID
	FeedURL   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SeenURL struct {
	ID        string
	FeedID    string
	URL       string
	CreatedAt time.Time
}

// Result is one processed article and its per-destination publish
// outcomes. PublishResults holds the JSON-encoded result array; the
// array is the authoritative publish record.
type Result struct {
	ID             string
	FeedID         *string // Nil for single-URL runs
	ItemURL        string
	Title          string
	Markdown       string
	PublishResults json.RawMessage
	Status         string // pending, completed, completed_with_errors, failed
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResultWithFeed joins a result with its source feed URL for reporting.
type ResultWithFeed struct {
	Result
	FeedURL string
}
