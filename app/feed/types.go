package feed

import (
	"time"
)

// Dialect identifies the feed format, detected from the root element.
type Dialect string

const (
	DialectRSS     Dialect = "rss"
	DialectAtom    Dialect = "atom"
	DialectRDF     Dialect = "rdf"
	DialectUnknown Dialect = "unknown"
)

// Descriptor holds normalized feed-level metadata. Immutable after parse.
type Descriptor struct {
	Dialect       Dialect
	Title         string
	Description   string
	Link          string
	Language      string
	LastBuildDate *time.Time
}

type Media struct {
	Thumbnail string
	Content   string
}

type Person struct {
	Name  string
	Email string
}

// Item is one normalized feed entry. Link is the natural key used for
// deduplication against previously processed URLs.
type Item struct {
	Title        string
	Link         string
	GUID         string
	Description  string
	Content      string
	Creator      string
	PublishedRaw string
	PublishedAt  *time.Time
	Categories   []string
	Authors      []Person
	Media        Media

	// Extensions maps namespace -> element name -> first value seen.
	// A pair already covered by a standard field is never overwritten.
	Extensions map[string]map[string]string
}

// ParseError indicates the feed XML could not be parsed at all. No
// partial Descriptor accompanies it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "feed parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
