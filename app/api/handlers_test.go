package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/slavikmr/feedpub/app/cfg"
	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/database"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/pipeline"
	"github.com/slavikmr/feedpub/app/publish"
)

type fakeOrchestrator struct {
	outcome       *pipeline.Outcome
	singleOutcome *pipeline.SingleURLOutcome
	runErr        error
	lastURL       string
	lastDests     []string
	lastSubset    []int
}

func (f *fakeOrchestrator) Preview(ctx context.Context, feedURL string, rawXML []byte) (*feed.Descriptor, []feed.Item, error) {
	if f.runErr != nil {
		return nil, nil, f.runErr
	}
	return &feed.Descriptor{Dialect: feed.DialectRSS, Title: "Preview Feed"},
		[]feed.Item{{Title: "Item", Link: "http://site/a"}}, nil
}

func (f *fakeOrchestrator) ProcessFeed(ctx context.Context, req pipeline.ProcessFeedRequest) (*pipeline.Outcome, error) {
	f.lastURL = req.FeedURL
	f.lastDests = req.Destinations
	f.lastSubset = req.SelectedIndices
	return f.outcome, f.runErr
}

func (f *fakeOrchestrator) ProcessSingleURL(ctx context.Context, articleURL string, destinations []string) (*pipeline.SingleURLOutcome, error) {
	f.lastURL = articleURL
	f.lastDests = destinations
	return f.singleOutcome, f.runErr
}

type fakeTester struct {
	err error
}

func (f *fakeTester) TestDestination(ctx context.Context, dest *config.Destination) error {
	return f.err
}

type fakeCounters struct{}

func (fakeCounters) GetFeedCount() (int, error) { return 3, nil }
func (fakeCounters) GetCount() (int, error)     { return 12, nil }
func (fakeCounters) List(limit int) ([]database.ResultWithFeed, error) {
	return []database.ResultWithFeed{{
		Result:  database.Result{ID: "r1", ItemURL: "http://site/a", Status: "completed"},
		FeedURL: "http://site/feed.xml",
	}}, nil
}

func newTestServer(orchestrator *fakeOrchestrator, tester *fakeTester) http.Handler {
	destinations := config.NewSet([]*config.Destination{
		{Name: "store-a", Platform: config.PlatformShopify},
	})
	counters := fakeCounters{}
	handler := NewHandler(orchestrator, tester, destinations, counters, counters, counters, "test")
	return NewServer(handler, "secret-key")
}

func doRequest(t *testing.T, server http.Handler, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func setupTestConfig() {
	// Clear os.Args to prevent config parsing from failing
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	// Pin the values the assertions depend on
	os.Setenv("PORT", "8080")
	os.Setenv("BASE_URL", "")

	cfg.Load()
}

func TestRootEndpointReportsBaseURL(t *testing.T) {
	setupTestConfig()
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})

	w := doRequest(t, server, "GET", "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["base_url"] != "http://localhost:8080" {
		t.Errorf("Expected default base URL from port, got: %v", body["base_url"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})
	w := doRequest(t, server, "GET", "/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["feeds"] != float64(3) {
		t.Errorf("Expected feed count in health, got: %v", body["feeds"])
	}
	if body["destinations"] != float64(1) {
		t.Errorf("Expected destination count in health, got: %v", body["destinations"])
	}
}

func TestProcessFeedRequiresAuth(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/process/feed", `{"feed_url":"http://x/f.xml"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got: %d", w.Code)
	}

	w = doRequest(t, server, "POST", "/api/process/feed", `{"feed_url":"http://x/f.xml"}`, "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got: %d", w.Code)
	}
}

func TestProcessFeedSuccess(t *testing.T) {
	orchestrator := &fakeOrchestrator{outcome: &pipeline.Outcome{
		Total: 2, Processed: 1, Skipped: 1,
		PerDestinationCounts: map[string]int{"store-a": 1},
	}}
	server := newTestServer(orchestrator, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/process/feed",
		`{"feed_url":"http://x/f.xml","destinations":["store-a"],"selected_indices":[0]}`, "secret-key")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}
	if orchestrator.lastURL != "http://x/f.xml" {
		t.Errorf("Expected feed URL forwarded, got: %s", orchestrator.lastURL)
	}
	if len(orchestrator.lastDests) != 1 || orchestrator.lastDests[0] != "store-a" {
		t.Errorf("Expected destinations forwarded, got: %v", orchestrator.lastDests)
	}
	if len(orchestrator.lastSubset) != 1 || orchestrator.lastSubset[0] != 0 {
		t.Errorf("Expected selected indices forwarded, got: %v", orchestrator.lastSubset)
	}

	var outcome pipeline.Outcome
	json.Unmarshal(w.Body.Bytes(), &outcome)
	if outcome.Processed != 1 {
		t.Errorf("Expected outcome in response, got: %+v", outcome)
	}
}

func TestProcessURLReturnsArticleAndPublishResults(t *testing.T) {
	orchestrator := &fakeOrchestrator{singleOutcome: &pipeline.SingleURLOutcome{
		Outcome: pipeline.Outcome{
			Total: 1, Processed: 1,
			PerDestinationCounts: map[string]int{"store-a": 1},
		},
		ResultID: "r9",
		Article:  &pipeline.Article{Title: "Hello", URL: "http://site/a"},
		Markdown: "# Hello",
		PublishResults: []publish.PublishResult{
			{Success: true, Platform: config.PlatformShopify, DestinationName: "store-a"},
		},
	}}
	server := newTestServer(orchestrator, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/process/url",
		`{"url":"http://site/a","destinations":["store-a"]}`, "secret-key")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", w.Code, w.Body.String())
	}
	if orchestrator.lastURL != "http://site/a" {
		t.Errorf("Expected article URL forwarded, got: %s", orchestrator.lastURL)
	}

	var body struct {
		ResultID       string                  `json:"result_id"`
		Article        *pipeline.Article       `json:"article"`
		Markdown       string                  `json:"markdown"`
		PublishResults []publish.PublishResult `json:"publish_results"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.ResultID != "r9" {
		t.Errorf("Expected result id in response, got: %s", w.Body.String())
	}
	if body.Article == nil || body.Article.Title != "Hello" {
		t.Errorf("Expected article record in response, got: %s", w.Body.String())
	}
	if body.Markdown != "# Hello" {
		t.Errorf("Expected final document in response, got: %s", w.Body.String())
	}
	if len(body.PublishResults) != 1 || !body.PublishResults[0].Success {
		t.Errorf("Expected publish results in response, got: %s", w.Body.String())
	}
}

func TestProcessFeedParseErrorIs422(t *testing.T) {
	orchestrator := &fakeOrchestrator{runErr: &feed.ParseError{Err: errors.New("bad xml")}}
	server := newTestServer(orchestrator, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/process/feed", `{"feed_url":"http://x/f.xml"}`, "secret-key")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for parse error, got: %d", w.Code)
	}
}

func TestProcessFeedRunErrorIs400(t *testing.T) {
	orchestrator := &fakeOrchestrator{runErr: errors.New("no destinations configured")}
	server := newTestServer(orchestrator, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/process/feed", `{"feed_url":"http://x/f.xml"}`, "secret-key")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for run error, got: %d", w.Code)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})

	w := doRequest(t, server, "POST", "/preview", `{"xml":"<rss/>"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var body struct {
		Feed  feed.Descriptor `json:"feed"`
		Items []feed.Item     `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Feed.Title != "Preview Feed" || len(body.Items) != 1 {
		t.Errorf("Unexpected preview response: %s", w.Body.String())
	}
}

func TestPreviewRequiresInput(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})
	w := doRequest(t, server, "POST", "/preview", `{}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty preview request, got: %d", w.Code)
	}
}

func TestGetResults(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})

	w := doRequest(t, server, "GET", "/api/results?limit=10", "", "secret-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http://site/a") {
		t.Errorf("Expected result item in response, got: %s", w.Body.String())
	}

	w = doRequest(t, server, "GET", "/api/results?limit=zero", "", "secret-key")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got: %d", w.Code)
	}
}

func TestTestDestination(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{})

	w := doRequest(t, server, "POST", "/api/destinations/test", `{"name":"store-a"}`, "secret-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("Expected ok response, got: %s", w.Body.String())
	}

	w = doRequest(t, server, "POST", "/api/destinations/test", `{"name":"nope"}`, "secret-key")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown destination, got: %d", w.Code)
	}
}

func TestTestDestinationFailure(t *testing.T) {
	server := newTestServer(&fakeOrchestrator{}, &fakeTester{err: errors.New("connection refused")})

	w := doRequest(t, server, "POST", "/api/destinations/test", `{"name":"store-a"}`, "secret-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with failure payload, got: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":false`) {
		t.Errorf("Expected failure flagged, got: %s", w.Body.String())
	}
}
