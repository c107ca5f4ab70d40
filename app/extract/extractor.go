package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// Selector lists are ordered: the first match wins and the search
// stops there.
var authorSelectors = []string{
	`meta[name="author"]`,
	`meta[property="article:author"]`,
	".author",
	".byline",
	`[rel="author"]`,
	`[itemprop="author"]`,
}

var dateSelectors = []string{
	`meta[property="article:published_time"]`,
	"time[datetime]",
	".publish-date",
	".post-date",
	".entry-date",
	`[itemprop="datePublished"]`,
}

var contentSelectors = []string{
	"article",
	".post-content",
	".entry-content",
	".content",
	"main",
	"#content",
	".post",
	`[itemprop="articleBody"]`,
}

// Elements stripped from <body> before the fallback text extraction.
var noiseSelector = "nav, header, footer, aside, script, style, noscript, iframe, form, " +
	".nav, .navigation, .menu, .sidebar, .ad, .ads, .advertisement, .comments, #comments"

var whitespaceRe = regexp.MustCompile(`\s+`)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run extracts structured article data from fetched HTML. Malformed or
// sparse markup degrades to empty fields; the only error is a reader
// failure in the HTML tokenizer.
func (e *Extractor) Run(html []byte, baseURL string, opts Options) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := &Content{
		Title:           e.extractTitle(doc, opts.FallbackTitle),
		MetaDescription: e.metaContent(doc, `meta[name="description"]`),
		Author:          e.extractFirst(doc, authorSelectors),
	}

	if !opts.SkipPublishDate {
		content.PublishDate = e.extractPublishDate(doc)
	}

	mainContent := e.findMainContent(doc, opts.ExtraContentSelectors)
	if mainContent != nil {
		if html, err := mainContent.Html(); err == nil {
			content.ContentHTML = html
		}
		content.ContentText = collapseWhitespace(mainContent.Text())
	} else {
		body := doc.Find("body").First()
		cleaned := body.Clone()
		cleaned.Find(noiseSelector).Remove()
		content.ContentText = collapseWhitespace(cleaned.Text())
	}

	content.Images = e.scanImages(doc, mainContent, baseURL, opts)

	return content, nil
}

func (e *Extractor) extractTitle(doc *goquery.Document, fallback string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		return title
	}
	return fallback
}

// extractFirst walks an ordered selector list and returns the first
// non-empty value: meta tags are read via the content attribute,
// everything else via trimmed text.
func (e *Extractor) extractFirst(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		var value string
		if strings.HasPrefix(selector, "meta") {
			value, _ = sel.Attr("content")
		} else {
			value = sel.Text()
		}

		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
	}
	return ""
}

func (e *Extractor) extractPublishDate(doc *goquery.Document) string {
	for _, selector := range dateSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		var value string
		switch {
		case strings.HasPrefix(selector, "meta"):
			value, _ = sel.Attr("content")
		case strings.HasPrefix(selector, "time"):
			// <time> prefers its datetime attribute over text
			value, _ = sel.Attr("datetime")
			if strings.TrimSpace(value) == "" {
				value = sel.Text()
			}
		default:
			value = sel.Text()
		}

		value = strings.TrimSpace(value)
		if value != "" {
			return normalizeDate(value)
		}
	}
	return ""
}

// normalizeDate converts a scraped date string to RFC 3339 when it is
// parseable; otherwise the raw value is kept.
func normalizeDate(value string) string {
	if parsed, err := dateparse.ParseAny(value); err == nil {
		return parsed.Format(time.RFC3339)
	}
	return value
}

func (e *Extractor) findMainContent(doc *goquery.Document, extra []string) *goquery.Selection {
	selectors := contentSelectors
	if len(extra) > 0 {
		selectors = append(append([]string{}, contentSelectors...), extra...)
	}

	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if strings.TrimSpace(sel.Text()) == "" {
			continue
		}
		return sel
	}
	return nil
}

func (e *Extractor) metaContent(doc *goquery.Document, selector string) string {
	value, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(value)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
