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

const (
	defaultArticleTitle   = "Imported Article"
	excerptLength         = 200
	connectionTestTimeout = 10 * time.Second
)

// ShopifyPublisher creates draft blog articles through the Shopify
// Admin REST API. The target blog is the first one the store lists.
type ShopifyPublisher struct {
	httpClient *http.Client
	dest       *config.Destination
	baseURL    string
}

func NewShopifyPublisher(httpClient *http.Client, dest *config.Destination) *ShopifyPublisher {
	return &ShopifyPublisher{
		httpClient: httpClient,
		dest:       dest,
		baseURL:    "https://" + dest.Shopify.StoreDomain,
	}
}

type shopifyBlogsResponse struct {
	Blogs []struct {
		ID int64 `json:"id"`
	} `json:"blogs"`
}

type shopifyArticlePayload struct {
	Article shopifyArticle `json:"article"`
}

type shopifyArticle struct {
	Title       string        `json:"title"`
	Author      string        `json:"author,omitempty"`
	BodyHTML    string        `json:"body_html"`
	SummaryHTML string        `json:"summary_html,omitempty"`
	Published   bool          `json:"published"`
	Image       *shopifyImage `json:"image,omitempty"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyArticleResponse struct {
	Article struct {
		ID     int64  `json:"id"`
		Handle string `json:"handle"`
	} `json:"article"`
}

func (p *ShopifyPublisher) Publish(ctx context.Context, doc string, meta ArticleMeta) PublishResult {
	result := PublishResult{
		Platform:        config.PlatformShopify,
		DestinationName: p.dest.Name,
		DestinationID:   p.dest.Shopify.StoreDomain,
		PublishedAt:     time.Now(),
	}

	blogID, err := p.firstBlogID(ctx)
	if err != nil {
		result.Error = fmt.Sprintf("failed to resolve blog: %v", err)
		return result
	}

	title, ok := markdown.FirstHeading(doc)
	if !ok {
		title = defaultArticleTitle
	}

	bodyHTML, err := markdown.RenderHTML(doc)
	if err != nil {
		result.Error = fmt.Sprintf("failed to render article body: %v", err)
		return result
	}

	article := shopifyArticle{
		Title:       title,
		Author:      p.dest.Shopify.DefaultAuthor,
		BodyHTML:    bodyHTML,
		SummaryHTML: markdown.Excerpt(doc, excerptLength),
		Published:   false,
	}
	if meta.ThumbnailURL != "" {
		article.Image = &shopifyImage{Src: meta.ThumbnailURL}
	}

	body, err := json.Marshal(shopifyArticlePayload{Article: article})
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal article: %v", err)
		return result
	}

	url := fmt.Sprintf("%s/admin/api/%s/blogs/%d/articles.json", p.baseURL, p.dest.Shopify.APIVersion, blogID)
	data, err := p.request(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var created shopifyArticleResponse
	if err := json.Unmarshal(data, &created); err != nil {
		result.Error = fmt.Sprintf("failed to parse article response: %v", err)
		return result
	}

	result.Success = true
	result.ExternalID = fmt.Sprintf("%d", created.Article.ID)
	if created.Article.Handle != "" {
		result.URL = fmt.Sprintf("https://%s/blogs/news/%s", p.dest.Shopify.StoreDomain, created.Article.Handle)
	}

	slog.Debug("Shopify article created", "destination", p.dest.Name, "article_id", created.Article.ID)

	return result
}

// TestConnection verifies the store credentials by listing blogs.
func (p *ShopifyPublisher) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectionTestTimeout)
	defer cancel()

	if _, err := p.firstBlogID(ctx); err != nil {
		return fmt.Errorf("shopify connection test failed for '%s': %w", p.dest.Name, err)
	}
	return nil
}

func (p *ShopifyPublisher) firstBlogID(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/admin/api/%s/blogs.json", p.baseURL, p.dest.Shopify.APIVersion)
	data, err := p.request(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	var parsed shopifyBlogsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse blogs response: %w", err)
	}
	if len(parsed.Blogs) == 0 {
		return 0, fmt.Errorf("store has no blogs")
	}

	return parsed.Blogs[0].ID, nil
}

func (p *ShopifyPublisher) request(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", p.dest.Shopify.AccessToken)
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
