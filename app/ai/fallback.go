package ai

import (
	"fmt"
	"strings"
)

// FallbackMarkdown renders the deterministic metadata-only template
// used when the AI service is unavailable or an item is excluded from
// the rewrite pass. Output depends only on the input article.
func FallbackMarkdown(article ArticleInput) string {
	var b strings.Builder

	title := article.Title
	if title == "" {
		title = "Untitled Article"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(article.ImageURLs) > 0 {
		fmt.Fprintf(&b, "![%s](%s)\n\n", title, article.ImageURLs[0])
	}

	if article.Description != "" {
		b.WriteString(article.Description + "\n\n")
	} else {
		b.WriteString("Content could not be retrieved for this article.\n\n")
	}

	if article.Author != "" {
		fmt.Fprintf(&b, "**Author:** %s\n\n", article.Author)
	}
	if article.PublishDate != "" {
		fmt.Fprintf(&b, "**Published:** %s\n\n", article.PublishDate)
	}
	if len(article.Categories) > 0 {
		fmt.Fprintf(&b, "**Categories:** %s\n\n", strings.Join(article.Categories, ", "))
	}

	if article.SourceURL != "" {
		domain := article.SourceDomain
		if domain == "" {
			domain = article.SourceURL
		}
		fmt.Fprintf(&b, "*Originally published at [%s](%s)*\n", domain, article.SourceURL)
	}

	return strings.TrimSpace(b.String())
}
