package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/slavikmr/feedpub/app/ai"
	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/database"
	"github.com/slavikmr/feedpub/app/extract"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/publish"
)

const (
	StatusPending             = "pending"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// DefaultWorkerCount caps concurrent item processing per run so a
// large feed does not overwhelm the AI provider or target sites.
const DefaultWorkerCount = 8

// Site-specific content selectors tried after the standard list in
// the single-URL path.
var singleURLContentSelectors = []string{
	".article-body",
	".story-body",
	".post-body",
	"#article-content",
}

// Deps are the collaborators an Orchestrator drives. Stores and
// network clients are interfaces so tests can substitute fakes.
type Deps struct {
	Parser       *feed.Parser
	Fetcher      ContentFetcher
	Extractor    *extract.Extractor
	Rewriter     Rewriter
	Dispatcher   PublishRunner
	Destinations *config.Set
	Feeds        FeedStore
	SeenURLs     SeenURLStore
	Results      ResultStore
	WorkerCount  int
}

// Orchestrator runs the feed-to-destinations pipeline. One item's
// failure degrades that item only; a run fails outright only before
// any item work has started.
type Orchestrator struct {
	parser       *feed.Parser
	fetcher      ContentFetcher
	extractor    *extract.Extractor
	rewriter     Rewriter
	dispatcher   PublishRunner
	destinations *config.Set
	feeds        FeedStore
	seenURLs     SeenURLStore
	results      ResultStore
	workerCount  int
}

func NewOrchestrator(deps Deps) *Orchestrator {
	workerCount := deps.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &Orchestrator{
		parser:       deps.Parser,
		fetcher:      deps.Fetcher,
		extractor:    deps.Extractor,
		rewriter:     deps.Rewriter,
		dispatcher:   deps.Dispatcher,
		destinations: deps.Destinations,
		feeds:        deps.Feeds,
		seenURLs:     deps.SeenURLs,
		results:      deps.Results,
		workerCount:  workerCount,
	}
}

// Preview fetches and parses a feed without processing or recording
// anything.
func (o *Orchestrator) Preview(ctx context.Context, feedURL string, rawXML []byte) (*feed.Descriptor, []feed.Item, error) {
	data := rawXML
	if len(data) == 0 {
		if err := validateURL(feedURL); err != nil {
			return nil, nil, err
		}
		var err error
		data, err = o.fetcher.Run(ctx, feedURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch feed: %w", err)
		}
	}
	return o.parser.Run(data)
}

// ProcessFeed runs the full pipeline for one feed.
func (o *Orchestrator) ProcessFeed(ctx context.Context, req ProcessFeedRequest) (*Outcome, error) {
	if err := validateURL(req.FeedURL); err != nil {
		return nil, err
	}

	set := o.destinations.Filter(req.Destinations)
	if set.Count() == 0 {
		return nil, fmt.Errorf("no destinations configured")
	}

	feedRecord, err := o.feeds.ResolveFeed(req.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve feed: %w", err)
	}

	data := req.RawXML
	if len(data) == 0 {
		data, err = o.fetcher.Run(ctx, req.FeedURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed: %w", err)
		}
	}

	descriptor, items, err := o.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if descriptor.Title != "" {
		if err := o.feeds.UpdateFeedTitle(feedRecord.ID, descriptor.Title); err != nil {
			slog.Warn("Failed to update feed title", "feed_url", req.FeedURL, "error", err)
		}
	}

	seen, err := o.seenURLs.ListURLs()
	if err != nil {
		return nil, fmt.Errorf("failed to list seen urls: %w", err)
	}

	outcome := &Outcome{
		Total:                len(items),
		PerDestinationCounts: make(map[string]int),
	}

	selected := indexSet(req.SelectedIndices)

	type queuedItem struct {
		item  feed.Item
		useAI bool
	}
	var work []queuedItem
	inRun := make(map[string]bool)
	for i, item := range items {
		if item.Link == "" || seen[item.Link] || inRun[item.Link] {
			outcome.Skipped++
			continue
		}
		inRun[item.Link] = true
		work = append(work, queuedItem{
			item:  item,
			useAI: selected == nil || selected[i],
		})
	}

	slog.Info("Feed run starting",
		"feed_url", req.FeedURL, "dialect", descriptor.Dialect,
		"discovered", len(items), "new", len(work), "destinations", set.Count())

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(o.workerCount))

	for _, w := range work {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			outcome.Skipped++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(w queuedItem) {
			defer wg.Done()
			defer sem.Release(1)

			res := o.processItem(ctx, feedRecord.ID, w.item, w.useAI, set)

			mu.Lock()
			outcome.fold(res)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	slog.Info("Feed run finished",
		"feed_url", req.FeedURL, "processed", outcome.Processed,
		"skipped", outcome.Skipped, "errors", outcome.Errors)

	return outcome, nil
}

// ProcessSingleURL runs the extraction and publish tail for one
// article URL, using the enhanced extraction variant. No seen-URL
// record is kept for single-URL runs.
func (o *Orchestrator) ProcessSingleURL(ctx context.Context, articleURL string, destinations []string) (*SingleURLOutcome, error) {
	if err := validateURL(articleURL); err != nil {
		return nil, err
	}

	set := o.destinations.Filter(destinations)
	if set.Count() == 0 {
		return nil, fmt.Errorf("no destinations configured")
	}

	outcome := &SingleURLOutcome{
		Outcome: Outcome{
			Total:                1,
			PerDestinationCounts: make(map[string]int),
		},
	}

	opts := extract.Options{
		ExtraContentSelectors: singleURLContentSelectors,
		FilterJunkImages:      true,
		MaxImages:             10,
	}
	article := o.buildArticle(ctx, feed.Item{Link: articleURL}, opts)

	res := o.publishArticle(ctx, nil, article, true, set)
	outcome.Outcome.fold(res)

	outcome.ResultID = res.resultID
	outcome.Article = article
	outcome.Markdown = res.markdown
	if res.report != nil {
		outcome.PublishResults = res.report.Results
	}

	return outcome, nil
}

type itemResult struct {
	resultID  string
	successes map[string]int // Per-destination successful publishes
	markdown  string
	report    *publish.Report
	processed bool
	skipped   bool
	errors    int
}

func (o *Orchestrator) processItem(ctx context.Context, feedID string, item feed.Item, useAI bool, set *config.Set) itemResult {
	if _, err := o.seenURLs.Insert(feedID, item.Link); err != nil {
		if errors.Is(err, database.ErrAlreadySeen) {
			return itemResult{skipped: true}
		}
		slog.Error("Failed to record seen url", "url", item.Link, "error", err)
		return itemResult{errors: 1}
	}

	article := o.buildArticle(ctx, item, extract.Options{})

	return o.publishArticle(ctx, &feedID, article, useAI, set)
}

// publishArticle runs the rewrite/publish/persist tail shared by the
// feed and single-URL paths.
func (o *Orchestrator) publishArticle(ctx context.Context, feedID *string, article *Article, useAI bool, set *config.Set) itemResult {
	resultID, err := o.results.Insert(&database.Result{
		FeedID:  feedID,
		ItemURL: article.URL,
		Title:   article.Title,
		Status:  StatusPending,
	})
	if err != nil {
		slog.Error("Failed to insert result", "url", article.URL, "error", err)
		return itemResult{errors: 1}
	}

	doc := o.composeMarkdown(ctx, article, useAI)
	report := o.dispatcher.Run(ctx, doc, publishMeta(article), set)

	encoded, err := json.Marshal(report.Results)
	if err != nil {
		encoded = json.RawMessage("[]")
	}

	status := StatusCompleted
	if report.TotalSuccess() < report.TotalAttempts() {
		status = StatusCompletedWithErrors
	}

	successes := make(map[string]int)
	for _, r := range report.Results {
		if r.Success {
			successes[r.DestinationName]++
		}
	}

	res := itemResult{resultID: resultID, successes: successes, markdown: doc, report: report, processed: true}
	if err := o.results.UpdateOutcome(resultID, doc, encoded, status, ""); err != nil {
		slog.Error("Failed to update result", "result_id", resultID, "error", err)
		res.errors = 1
	}
	return res
}

// composeMarkdown produces the final document: AI rewrite with a
// humanize pass, falling back one stage at a time.
func (o *Orchestrator) composeMarkdown(ctx context.Context, article *Article, useAI bool) string {
	input := aiInput(article)
	if !useAI {
		return ai.FallbackMarkdown(input)
	}

	doc, err := o.rewriter.Rewrite(ctx, input)
	if err != nil {
		slog.Warn("AI rewrite failed, using fallback template", "url", article.URL, "error", err)
		return ai.FallbackMarkdown(input)
	}

	humanized, err := o.rewriter.Humanize(ctx, doc)
	if err != nil {
		slog.Warn("Humanize failed, keeping rewritten text", "url", article.URL, "error", err)
		return doc
	}
	return humanized
}

func (out *Outcome) fold(res itemResult) {
	if res.skipped {
		out.Skipped++
	}
	if res.processed {
		out.Processed++
		out.ItemResultIDs = append(out.ItemResultIDs, res.resultID)
	}
	out.Errors += res.errors
	for name, count := range res.successes {
		out.PerDestinationCounts[name] += count
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("a valid http(s) URL is required")
	}
	return nil
}

func indexSet(indices []int) map[int]bool {
	if indices == nil {
		return nil
	}
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}
