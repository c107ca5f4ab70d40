package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServiceError indicates the AI service failed after exhausting
// retries. Callers fall back to the deterministic Markdown template.
type ServiceError struct {
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("AI %s failed: %v", e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ArticleInput carries the normalized article fields the rewrite
// prompt is built from.
type ArticleInput struct {
	Title           string
	Description     string
	ContentMarkdown string
	SourceURL       string
	SourceDomain    string
	Author          string
	PublishDate     string
	Categories      []string
	ImageURLs       []string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to a chat-completions endpoint for the rewrite and
// humanize passes. Calls retry with exponential backoff (1s/2s/4s)
// rather than a hard timeout.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessKey   string
	model       string
	maxTokens   int
	temperature float64
	maxAttempts int
	backoff     BackoffPolicy
}

func NewClient(httpClient *http.Client, endpoint, accessKey, model string, maxTokens int, temperature float64) *Client {
	return &Client{
		httpClient:  httpClient,
		endpoint:    endpoint,
		accessKey:   accessKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		maxAttempts: DefaultMaxAttempts,
		backoff:     ExponentialBackoff(time.Second),
	}
}

// Rewrite turns normalized article data into a polished Markdown
// document.
func (c *Client) Rewrite(ctx context.Context, article ArticleInput) (string, error) {
	prompt := buildRewritePrompt(article)

	result, err := WithRetry(ctx, c.maxAttempts, c.backoff, func(ctx context.Context) (string, error) {
		return c.complete(ctx, rewriteSystemPrompt, prompt)
	})
	if err != nil {
		return "", &ServiceError{Operation: "rewrite", Err: err}
	}
	return result, nil
}

// Humanize runs the secondary pass that makes AI-authored text read
// less mechanically.
func (c *Client) Humanize(ctx context.Context, markdown string) (string, error) {
	result, err := WithRetry(ctx, c.maxAttempts, c.backoff, func(ctx context.Context) (string, error) {
		return c.complete(ctx, humanizeSystemPrompt, markdown)
	})
	if err != nil {
		return "", &ServiceError{Operation: "humanize", Err: err}
	}
	return result, nil
}

const rewriteSystemPrompt = "You are a professional content editor. Rewrite the provided " +
	"article as clean, well-structured Markdown. Keep all facts, preserve image references, " +
	"and start with a single level-1 heading. Return only the Markdown document."

const humanizeSystemPrompt = "Rewrite the following Markdown so it reads naturally, varying " +
	"sentence length and avoiding mechanical phrasing. Preserve the structure, headings, " +
	"links and images. Return only the Markdown document."

func buildRewritePrompt(article ArticleInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", article.Author)
	}
	if article.PublishDate != "" {
		fmt.Fprintf(&b, "Published: %s\n", article.PublishDate)
	}
	if len(article.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(article.Categories, ", "))
	}
	fmt.Fprintf(&b, "Source: %s\n", article.SourceURL)
	if len(article.ImageURLs) > 0 {
		fmt.Fprintf(&b, "Images: %s\n", strings.Join(article.ImageURLs, " "))
	}
	b.WriteString("\n")
	if article.Description != "" {
		b.WriteString(article.Description + "\n\n")
	}
	b.WriteString(article.ContentMarkdown)

	return b.String()
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty completion")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
