package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/markdown"
)

// WordPressPublisher creates posts through the WordPress REST API
// using application-password Basic authentication.
type WordPressPublisher struct {
	httpClient *http.Client
	dest       *config.Destination
}

func NewWordPressPublisher(httpClient *http.Client, dest *config.Destination) *WordPressPublisher {
	return &WordPressPublisher{httpClient: httpClient, dest: dest}
}

type wordPressPostPayload struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Excerpt    string            `json:"excerpt,omitempty"`
	Status     string            `json:"status"`
	Categories []int             `json:"categories,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

type wordPressPostResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

func (p *WordPressPublisher) Publish(ctx context.Context, doc string, meta ArticleMeta) PublishResult {
	result := PublishResult{
		Platform:        config.PlatformWordPress,
		DestinationName: p.dest.Name,
		DestinationID:   p.dest.WordPress.SiteURL,
		PublishedAt:     time.Now(),
	}

	title, ok := markdown.FirstHeading(doc)
	if !ok {
		title = defaultArticleTitle
	}

	contentHTML, err := markdown.RenderHTML(doc)
	if err != nil {
		result.Error = fmt.Sprintf("failed to render post body: %v", err)
		return result
	}

	payload := wordPressPostPayload{
		Title:   title,
		Content: contentHTML,
		Excerpt: markdown.Excerpt(doc, excerptLength),
		Status:  p.dest.WordPress.DefaultStatus,
		Meta: map[string]string{
			"source_url":      meta.SourceURL,
			"original_author": meta.Author,
			"original_date":   meta.PublishDate,
			"source_domain":   meta.SourceDomain,
		},
	}
	if p.dest.WordPress.DefaultCategoryID > 0 {
		payload.Categories = []int{p.dest.WordPress.DefaultCategoryID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal post: %v", err)
		return result
	}

	data, err := p.request(ctx, "POST", p.postsURL(), bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var created wordPressPostResponse
	if err := json.Unmarshal(data, &created); err != nil {
		result.Error = fmt.Sprintf("failed to parse post response: %v", err)
		return result
	}

	result.Success = true
	result.ExternalID = fmt.Sprintf("%d", created.ID)
	result.URL = created.Link

	slog.Debug("WordPress post created", "destination", p.dest.Name, "post_id", created.ID)

	return result
}

// TestConnection verifies the site credentials by listing one post.
func (p *WordPressPublisher) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectionTestTimeout)
	defer cancel()

	if _, err := p.request(ctx, "GET", p.postsURL()+"?per_page=1", nil); err != nil {
		return fmt.Errorf("wordpress connection test failed for '%s': %w", p.dest.Name, err)
	}
	return nil
}

func (p *WordPressPublisher) postsURL() string {
	return strings.TrimSuffix(p.dest.WordPress.SiteURL, "/") + "/wp-json/wp/v2/posts"
}

func (p *WordPressPublisher) request(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(p.dest.WordPress.Username, p.dest.WordPress.AppPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}
