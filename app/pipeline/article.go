package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/slavikmr/feedpub/app/ai"
	"github.com/slavikmr/feedpub/app/extract"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/fetcher"
	"github.com/slavikmr/feedpub/app/markdown"
	"github.com/slavikmr/feedpub/app/publish"
)

const (
	fallbackDescription = "Content could not be retrieved for this article."
	maxArticleImages    = 5
)

// buildArticle assembles the canonical article record for one item.
// It never fails: a fetch or extraction failure leaves feed metadata
// as the best available data.
func (o *Orchestrator) buildArticle(ctx context.Context, item feed.Item, opts extract.Options) *Article {
	article := &Article{
		Title:               item.Title,
		OriginalTitle:       item.Title,
		OriginalDescription: item.Description,
		DescriptionText:     htmlText(item.Description),
		URL:                 item.Link,
		PubDate:             itemPubDate(item),
		Author:              itemAuthor(item),
		Categories:          feed.DedupeCategories(item.Categories),
		SourceDomain:        extract.Hostname(item.Link),
	}

	var pageImages []extract.ImageCandidate

	data, err := o.fetcher.Run(ctx, item.Link)
	if err != nil {
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) {
			slog.Warn("Article fetch failed", "url", item.Link, "kind", fetchErr.Kind)
		} else {
			slog.Warn("Article fetch failed", "url", item.Link, "error", err)
		}
	} else {
		opts.FallbackTitle = item.Title
		opts.SkipPublishDate = article.PubDate != ""

		content, extractErr := o.extractor.Run(data, item.Link, opts)
		if extractErr != nil {
			slog.Warn("Article extraction failed", "url", item.Link, "error", extractErr)
		} else {
			article.FullHTMLFetched = true
			if content.Title != "" {
				article.Title = content.Title
			}
			article.MetaDescription = content.MetaDescription
			if article.DescriptionText == "" {
				article.DescriptionText = content.MetaDescription
			}
			if article.Author == "" {
				article.Author = content.Author
			}
			if article.PubDate == "" {
				article.PubDate = content.PublishDate
			}
			if content.ContentHTML != "" {
				article.MarkdownContent = markdown.Convert(content.ContentHTML, item.Link)
			}
			pageImages = content.Images
		}
	}

	if article.DescriptionText == "" && !article.FullHTMLFetched {
		article.DescriptionText = fallbackDescription
	}

	// Fall back to the feed's own content when the page yielded nothing.
	if article.MarkdownContent == "" {
		if item.Content != "" {
			article.MarkdownContent = markdown.Convert(item.Content, item.Link)
		} else if item.Description != "" {
			article.MarkdownContent = markdown.Convert(item.Description, item.Link)
		}
	}

	ranked := extract.RankImages(
		feedMediaCandidates(item),
		htmlImages(item.Description, item.Link),
		htmlImages(item.Content, item.Link),
		pageImages,
	)
	if len(ranked) > maxArticleImages {
		ranked = ranked[:maxArticleImages]
	}
	article.Images = ranked
	if len(ranked) > 0 {
		article.Thumbnail = ranked[0].URL
	}

	return article
}

// feedMediaCandidates turns feed-level media fields into synthetic
// candidates that rank above page-default images.
func feedMediaCandidates(item feed.Item) []extract.ImageCandidate {
	var out []extract.ImageCandidate
	if item.Media.Thumbnail != "" {
		out = append(out, extract.ImageCandidate{
			URL:      item.Media.Thumbnail,
			Position: extract.PositionMediaThumbnail,
			Priority: extract.PriorityContainer,
		})
	}
	if item.Media.Content != "" {
		out = append(out, extract.ImageCandidate{
			URL:      item.Media.Content,
			Position: extract.PositionMediaContent,
			Priority: extract.PriorityContainer,
		})
	}
	return out
}

// htmlImages collects image candidates from an HTML fragment such as
// a feed description or embedded content block.
func htmlImages(fragment, baseURL string) []extract.ImageCandidate {
	if strings.TrimSpace(fragment) == "" || !strings.Contains(fragment, "<") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var out []extract.ImageCandidate
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		resolved := extract.ResolveURL(src, baseURL)
		if resolved == "" {
			return
		}
		alt, _ := img.Attr("alt")
		out = append(out, extract.ImageCandidate{
			URL:      resolved,
			Alt:      alt,
			Position: extract.PositionContent,
			Priority: extract.PriorityDefault,
		})
	})
	return out
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func htmlText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(fragment, " "))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

func itemPubDate(item feed.Item) string {
	if item.PublishedAt != nil {
		return item.PublishedAt.Format(time.RFC3339)
	}
	return item.PublishedRaw
}

func itemAuthor(item feed.Item) string {
	if len(item.Authors) > 0 {
		return feed.FormatAuthor(item.Authors[0])
	}
	return item.Creator
}

func aiInput(article *Article) ai.ArticleInput {
	urls := make([]string, 0, len(article.Images))
	for _, img := range article.Images {
		urls = append(urls, img.URL)
	}
	return ai.ArticleInput{
		Title:           article.Title,
		Description:     article.DescriptionText,
		ContentMarkdown: article.MarkdownContent,
		SourceURL:       article.URL,
		SourceDomain:    article.SourceDomain,
		Author:          article.Author,
		PublishDate:     article.PubDate,
		Categories:      article.Categories,
		ImageURLs:       urls,
	}
}

func publishMeta(article *Article) publish.ArticleMeta {
	return publish.ArticleMeta{
		SourceURL:    article.URL,
		SourceDomain: article.SourceDomain,
		Author:       article.Author,
		PublishDate:  article.PubDate,
		ThumbnailURL: article.Thumbnail,
	}
}
