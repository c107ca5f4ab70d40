package pipeline

import (
	"context"
	"encoding/json"

	"github.com/slavikmr/feedpub/app/ai"
	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/database"
	"github.com/slavikmr/feedpub/app/extract"
	"github.com/slavikmr/feedpub/app/publish"
)

// Article is the canonical per-item record assembled from feed
// metadata and the fetched page. It is built once per item and owned
// by that item's task for its lifetime.
type Article struct {
	Title               string                   `json:"title"`
	OriginalTitle       string                   `json:"original_title"`
	DescriptionText     string                   `json:"description"`
	OriginalDescription string                   `json:"original_description"`
	Images              []extract.ImageCandidate `json:"images"`    // Top 5 after ranking
	Thumbnail           string                   `json:"thumbnail"` // Best image URL, or ""
	URL                 string                   `json:"url"`
	PubDate             string                   `json:"pub_date"`
	Author              string                   `json:"author"`
	Categories          []string                 `json:"categories"`
	FullHTMLFetched     bool                     `json:"full_html_fetched"`
	MetaDescription     string                   `json:"meta_description"`
	MarkdownContent     string                   `json:"markdown_content"`
	SourceDomain        string                   `json:"source_domain"`
}

// ProcessFeedRequest describes one feed-processing run.
type ProcessFeedRequest struct {
	FeedURL string
	RawXML  []byte // Already-fetched feed XML; skips the feed fetch when set

	// Destinations restricts publishing to the named destinations.
	// Empty means every enabled destination.
	Destinations []string

	// SelectedIndices restricts the AI rewrite+humanize passes to the
	// listed positions in the discovered item list. Items outside the
	// subset are still fetched and recorded with the fallback template.
	// Nil means every item goes through AI.
	SelectedIndices []int
}

// Outcome aggregates one run. Created empty at run start, folded as
// item results complete, persisted once.
type Outcome struct {
	Total                int            `json:"total"`
	Processed            int            `json:"processed"`
	Errors               int            `json:"errors"`
	Skipped              int            `json:"skipped"`
	PerDestinationCounts map[string]int `json:"per_destination_counts"`
	ItemResultIDs        []string       `json:"item_result_ids"`
}

// SingleURLOutcome carries the assembled article, the final document,
// and the per-destination publish results alongside the run counters,
// so the caller gets the full record back without a separate query.
type SingleURLOutcome struct {
	Outcome
	ResultID       string                  `json:"result_id"`
	Article        *Article                `json:"article"`
	Markdown       string                  `json:"markdown"`
	PublishResults []publish.PublishResult `json:"publish_results"`
}

// Store interfaces are defined here, on the consumer side, so tests
// can substitute fakes without a database.

type FeedStore interface {
	ResolveFeed(feedURL string) (*database.Feed, error)
	UpdateFeedTitle(feedID, title string) error
}

type SeenURLStore interface {
	Insert(feedID, url string) (string, error)
	ListURLs() (map[string]bool, error)
}

type ResultStore interface {
	Insert(result *database.Result) (string, error)
	UpdateOutcome(id string, markdown string, publishResults json.RawMessage, status, errorMsg string) error
}

type ContentFetcher interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

type Rewriter interface {
	Rewrite(ctx context.Context, article ai.ArticleInput) (string, error)
	Humanize(ctx context.Context, markdown string) (string, error)
}

type PublishRunner interface {
	Run(ctx context.Context, doc string, meta publish.ArticleMeta, set *config.Set) *publish.Report
}
