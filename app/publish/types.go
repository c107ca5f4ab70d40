package publish

import (
	"context"
	"time"

	"github.com/slavikmr/feedpub/app/config"
)

// ArticleMeta carries the source metadata attached to a published
// document. The Markdown document itself is the authoritative body.
type ArticleMeta struct {
	SourceURL    string
	SourceDomain string
	Author       string
	PublishDate  string
	ThumbnailURL string
}

// PublishResult records the outcome of one destination call. One
// result exists per (article, destination) pair regardless of outcome.
type PublishResult struct {
	Success         bool            `json:"success"`
	Platform        config.Platform `json:"platform"`
	DestinationName string          `json:"destination_name"`
	DestinationID   string          `json:"destination_id"`
	ExternalID      string          `json:"external_id,omitempty"`
	URL             string          `json:"url,omitempty"`
	Error           string          `json:"error,omitempty"`
	PublishedAt     time.Time       `json:"published_at"`
}

// Report aggregates per-destination results for one article. The
// result slice is authoritative; the counters are derived from it.
type Report struct {
	Results []PublishResult `json:"results"`
}

func (r *Report) TotalAttempts() int {
	return len(r.Results)
}

func (r *Report) TotalSuccess() int {
	count := 0
	for _, res := range r.Results {
		if res.Success {
			count++
		}
	}
	return count
}

// Publisher submits a Markdown document to one configured destination.
type Publisher interface {
	Publish(ctx context.Context, markdown string, meta ArticleMeta) PublishResult
	TestConnection(ctx context.Context) error
}
