package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw feed XML into a Descriptor and normalized items.
// Malformed XML yields a *ParseError and no partial Descriptor.
func (p *Parser) Run(data []byte) (*Descriptor, []Item, error) {
	dialect := DetectDialect(data)

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ParseError{Err: err}
	}

	descriptor := &Descriptor{
		Dialect:     dialect,
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		Language:    parsed.Language,
	}

	if parsed.UpdatedParsed != nil {
		descriptor.LastBuildDate = parsed.UpdatedParsed
	} else if parsed.PublishedParsed != nil {
		descriptor.LastBuildDate = parsed.PublishedParsed
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return descriptor, items, nil
}

// DetectDialect classifies feed XML by its root element. First match
// wins: a document whose root is <rss> is RSS even when it nests
// <feed>-named elements further down.
func DetectDialect(data []byte) Dialect {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF || err != nil {
			return DialectUnknown
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "rss":
			return DialectRSS
		case "feed":
			return DialectAtom
		case "RDF":
			return DialectRDF
		default:
			return DialectUnknown
		}
	}
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		Title:        item.Title,
		Link:         item.Link,
		GUID:         item.GUID,
		Description:  item.Description,
		Content:      item.Content,
		PublishedRaw: item.Published,
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed
		normalized.PublishedRaw = item.Updated
	}

	if item.Categories != nil {
		normalized.Categories = item.Categories
	}

	normalized.Authors = p.extractAuthors(item)

	p.applyDublinCore(&normalized, item)
	p.mergeExtensions(&normalized, item)

	return normalized
}

func (p *Parser) extractAuthors(item *gofeed.Item) []Person {
	var authors []Person

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			name := strings.TrimSpace(author.Name)
			email := strings.TrimSpace(author.Email)
			if name != "" || email != "" {
				authors = append(authors, Person{Name: name, Email: email})
			}
		}
	} else if item.Author != nil {
		name := strings.TrimSpace(item.Author.Name)
		email := strings.TrimSpace(item.Author.Email)
		if name != "" || email != "" {
			authors = append(authors, Person{Name: name, Email: email})
		}
	}

	return authors
}

// applyDublinCore fills creator and publish date from dc:creator and
// dc:date when the standard slots are empty (the RDF/RSS 1.0 path).
func (p *Parser) applyDublinCore(normalized *Item, item *gofeed.Item) {
	if item.DublinCoreExt == nil {
		return
	}

	if normalized.Creator == "" && len(item.DublinCoreExt.Creator) > 0 {
		normalized.Creator = item.DublinCoreExt.Creator[0]
	}

	if normalized.PublishedAt == nil && len(item.DublinCoreExt.Date) > 0 {
		raw := item.DublinCoreExt.Date[0]
		normalized.PublishedRaw = raw
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			utc := parsed.UTC()
			normalized.PublishedAt = &utc
		}
	}
}

// mergeExtensions builds the immutable (namespace, name) -> value map
// with first-write-wins semantics, and routes the well-known media and
// content extensions into their standard slots.
func (p *Parser) mergeExtensions(normalized *Item, item *gofeed.Item) {
	if len(item.Extensions) == 0 {
		return
	}

	fields := make(map[string]map[string]string)
	for namespace, elements := range item.Extensions {
		for name, values := range elements {
			if len(values) == 0 {
				continue
			}
			if fields[namespace] == nil {
				fields[namespace] = make(map[string]string)
			}
			if _, exists := fields[namespace][name]; exists {
				continue
			}

			value := values[0].Value
			if value == "" {
				value = values[0].Attrs["url"]
			}
			fields[namespace][name] = value
		}
	}

	if normalized.Media.Thumbnail == "" {
		normalized.Media.Thumbnail = p.extensionURL(item, "media", "thumbnail")
	}
	if normalized.Media.Content == "" {
		normalized.Media.Content = p.extensionURL(item, "media", "content")
	}

	if normalized.Content == "" {
		if content, ok := fields["content"]; ok {
			if encoded, ok := content["encoded"]; ok {
				normalized.Content = encoded
			}
		}
	}

	normalized.Extensions = fields
}

// extensionURL reads the url attribute of the first occurrence of a
// namespaced element (media:thumbnail / media:content carry the image
// in an attribute, not in text content).
func (p *Parser) extensionURL(item *gofeed.Item, namespace, name string) string {
	elements, ok := item.Extensions[namespace]
	if !ok {
		return ""
	}
	values, ok := elements[name]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0].Attrs["url"]
}

// Fetch-time helper: gofeed exposes parsed categories as plain strings;
// dedupe preserves input order.
func DedupeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FormatAuthor renders a Person the way downstream metadata expects.
func FormatAuthor(p Person) string {
	if p.Name != "" && p.Email != "" {
		return fmt.Sprintf("%s (%s)", p.Email, p.Name)
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
