package api

import (
	"context"

	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/database"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/pipeline"
)

// Collaborator interfaces, defined here so handler tests can use fakes.

type OrchestratorInterface interface {
	Preview(ctx context.Context, feedURL string, rawXML []byte) (*feed.Descriptor, []feed.Item, error)
	ProcessFeed(ctx context.Context, req pipeline.ProcessFeedRequest) (*pipeline.Outcome, error)
	ProcessSingleURL(ctx context.Context, articleURL string, destinations []string) (*pipeline.SingleURLOutcome, error)
}

type DestinationTester interface {
	TestDestination(ctx context.Context, dest *config.Destination) error
}

type FeedCounter interface {
	GetFeedCount() (int, error)
}

type SeenURLCounter interface {
	GetCount() (int, error)
}

type ResultLister interface {
	List(limit int) ([]database.ResultWithFeed, error)
	GetCount() (int, error)
}

type previewRequest struct {
	FeedURL string `json:"feed_url"`
	XML     string `json:"xml"`
}

type processFeedRequest struct {
	FeedURL         string   `json:"feed_url"`
	Destinations    []string `json:"destinations"`
	SelectedIndices []int    `json:"selected_indices"`
}

type processURLRequest struct {
	URL          string   `json:"url"`
	Destinations []string `json:"destinations"`
}

type testDestinationRequest struct {
	Name string `json:"name"`
}
