package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/pipeline"
)

const defaultResultsLimit = 50

type Handler struct {
	orchestrator OrchestratorInterface
	tester       DestinationTester
	destinations *config.Set
	feedRepo     FeedCounter
	seenRepo     SeenURLCounter
	resultRepo   ResultLister
	version      string
}

func NewHandler(orchestrator OrchestratorInterface, tester DestinationTester,
	destinations *config.Set, feedRepo FeedCounter, seenRepo SeenURLCounter,
	resultRepo ResultLister, version string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		tester:       tester,
		destinations: destinations,
		feedRepo:     feedRepo,
		seenRepo:     seenRepo,
		resultRepo:   resultRepo,
		version:      version,
	}
}

func (h *Handler) Version() string {
	return h.version
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":    time.Now().In(time.Local).Format(time.RFC3339),
		"destinations": h.destinations.Count(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"destinations": h.destinations.Count(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		stats["feeds"] = feedCount
	}
	if seenCount, err := h.seenRepo.GetCount(); err == nil {
		stats["seen_urls"] = seenCount
	}
	if resultCount, err := h.resultRepo.GetCount(); err == nil {
		stats["results"] = resultCount
	}

	c.JSON(http.StatusOK, stats)
}

// PostPreview parses a feed without processing or recording anything.
func (h *Handler) PostPreview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.FeedURL == "" && req.XML == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed_url or xml is required"})
		return
	}

	descriptor, items, err := h.orchestrator.Preview(c.Request.Context(), req.FeedURL, []byte(req.XML))
	if err != nil {
		var parseErr *feed.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":  descriptor,
		"items": items,
	})
}

func (h *Handler) PostProcessFeed(c *gin.Context) {
	var req processFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outcome, err := h.orchestrator.ProcessFeed(c.Request.Context(), pipeline.ProcessFeedRequest{
		FeedURL:         req.FeedURL,
		Destinations:    req.Destinations,
		SelectedIndices: req.SelectedIndices,
	})
	if err != nil {
		slog.Error("Feed run failed", "feed_url", req.FeedURL, "error", err)
		c.JSON(runErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	// Partial failures are reported inside the outcome with status 200.
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) PostProcessURL(c *gin.Context) {
	var req processURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outcome, err := h.orchestrator.ProcessSingleURL(c.Request.Context(), req.URL, req.Destinations)
	if err != nil {
		slog.Error("Single URL run failed", "url", req.URL, "error", err)
		c.JSON(runErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) GetResults(c *gin.Context) {
	limit := defaultResultsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	results, err := h.resultRepo.List(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_results", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	type resultView struct {
		ID             string      `json:"id"`
		FeedURL        string      `json:"feed_url,omitempty"`
		ItemURL        string      `json:"item_url"`
		Title          string      `json:"title"`
		Status         string      `json:"status"`
		Error          string      `json:"error,omitempty"`
		PublishResults interface{} `json:"publish_results"`
		CreatedAt      time.Time   `json:"created_at"`
		UpdatedAt      time.Time   `json:"updated_at"`
	}

	views := make([]resultView, 0, len(results))
	for _, r := range results {
		views = append(views, resultView{
			ID:             r.ID,
			FeedURL:        r.FeedURL,
			ItemURL:        r.ItemURL,
			Title:          r.Title,
			Status:         r.Status,
			Error:          r.Error,
			PublishResults: r.PublishResults,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": views, "count": len(views)})
}

func (h *Handler) PostTestDestination(c *gin.Context) {
	var req testDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	var dest *config.Destination
	for _, d := range h.destinations.All() {
		if d.Name == req.Name {
			dest = d
			break
		}
	}
	if dest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown destination: " + req.Name})
		return
	}

	if err := h.tester.TestDestination(c.Request.Context(), dest); err != nil {
		c.JSON(http.StatusOK, gin.H{"name": dest.Name, "ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": dest.Name, "ok": true})
}

// runErrorStatus maps run-level failures: malformed feed content is
// 422, everything else caught before item work is 400.
func runErrorStatus(err error) int {
	var parseErr *feed.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
