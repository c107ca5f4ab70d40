package feed

import (
	"errors"
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <lastBuildDate>Mon, 03 Jul 2023 12:00:00 GMT</lastBuildDate>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <category>Technology</category>
      <category>Programming</category>
      <content:encoded><![CDATA[<p>Full body</p>]]></content:encoded>
      <media:thumbnail url="https://example.com/thumb.jpg" width="150" height="150"/>
      <media:content url="https://example.com/full.jpg"/>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	descriptor, items, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if descriptor.Dialect != DialectRSS {
		t.Errorf("Expected dialect 'rss', got: %s", descriptor.Dialect)
	}
	if descriptor.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", descriptor.Title)
	}
	if descriptor.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", descriptor.Link)
	}
	if descriptor.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got: %s", descriptor.Language)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item1 := items[0]
	if item1.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", item1.Title)
	}
	if item1.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", item1.Link)
	}
	if item1.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", item1.GUID)
	}
	if len(item1.Categories) != 2 {
		t.Errorf("Expected 2 categories, got: %d", len(item1.Categories))
	}
	if item1.Content != "<p>Full body</p>" {
		t.Errorf("Expected content:encoded mapped to content, got: %s", item1.Content)
	}
	if item1.Media.Thumbnail != "https://example.com/thumb.jpg" {
		t.Errorf("Expected media thumbnail URL, got: %s", item1.Media.Thumbnail)
	}
	if item1.Media.Content != "https://example.com/full.jpg" {
		t.Errorf("Expected media content URL, got: %s", item1.Media.Content)
	}
	if item1.PublishedAt == nil {
		t.Error("Expected publish date to be parsed")
	}

	item2 := items[1]
	if item2.PublishedAt != nil {
		t.Error("Expected missing publish date to stay nil")
	}
	if item2.GUID != "" {
		t.Errorf("Expected empty GUID, got: %s", item2.GUID)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <subtitle>Atom Subtitle</subtitle>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Test Entry</title>
    <link rel="alternate" href="https://example.com/entry1"/>
    <id>entry-1</id>
    <published>2023-07-03T10:00:00Z</published>
    <updated>2023-07-03T11:00:00Z</updated>
    <summary>Entry Summary</summary>
    <author>
      <name>Test Author</name>
      <email>author@example.com</email>
    </author>
  </entry>
</feed>`

	parser := NewParser()
	descriptor, items, err := parser.Run([]byte(atomData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if descriptor.Dialect != DialectAtom {
		t.Errorf("Expected dialect 'atom', got: %s", descriptor.Dialect)
	}
	if descriptor.Title != "Test Atom Feed" {
		t.Errorf("Expected title 'Test Atom Feed', got: %s", descriptor.Title)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	entry := items[0]
	if entry.Link != "https://example.com/entry1" {
		t.Errorf("Expected alternate link, got: %s", entry.Link)
	}
	if entry.Description != "Entry Summary" {
		t.Errorf("Expected summary as description, got: %s", entry.Description)
	}
	if len(entry.Authors) != 1 {
		t.Fatalf("Expected 1 author, got: %d", len(entry.Authors))
	}
	if entry.Authors[0].Name != "Test Author" || entry.Authors[0].Email != "author@example.com" {
		t.Errorf("Unexpected author: %+v", entry.Authors[0])
	}
	if entry.PublishedAt == nil {
		t.Fatal("Expected published date to be parsed")
	}
	if entry.PublishedAt.Hour() != 10 {
		t.Errorf("Expected published (not updated) to win, got hour %d", entry.PublishedAt.Hour())
	}
}

func TestParseRDF(t *testing.T) {
	rdfData := `<?xml version="1.0" encoding="utf-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="https://example.com">
    <title>RDF Feed</title>
    <link>https://example.com</link>
    <description>RDF Description</description>
  </channel>
  <item rdf:about="https://example.com/item1">
    <title>RDF Item</title>
    <link>https://example.com/item1</link>
    <description>RDF Item Description</description>
    <dc:creator>Jane Writer</dc:creator>
    <dc:date>2023-07-03T09:00:00Z</dc:date>
  </item>
</rdf:RDF>`

	parser := NewParser()
	descriptor, items, err := parser.Run([]byte(rdfData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if descriptor.Dialect != DialectRDF {
		t.Errorf("Expected dialect 'rdf', got: %s", descriptor.Dialect)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	item := items[0]
	if item.Creator != "Jane Writer" {
		t.Errorf("Expected dc:creator mapped to creator, got: %s", item.Creator)
	}
	if item.PublishedAt == nil {
		t.Error("Expected dc:date mapped to publish date")
	}
}

func TestParseInvalidXML(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Run([]byte("this is not XML at all"))

	if err == nil {
		t.Fatal("Expected parse error for invalid XML")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got: %T", err)
	}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected Dialect
	}{
		{"rss root", `<rss version="2.0"><channel><feed>x</feed></channel></rss>`, DialectRSS},
		{"atom root", `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`, DialectAtom},
		{"rdf root", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"></rdf:RDF>`, DialectRDF},
		{"unknown root", `<html><body></body></html>`, DialectUnknown},
		{"not xml", `plain text`, DialectUnknown},
	}

	for _, tt := range tests {
		if got := DetectDialect([]byte(tt.data)); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.expected, got)
		}
	}
}

func TestFormatAuthor(t *testing.T) {
	if got := FormatAuthor(Person{Name: "Jane", Email: "jane@example.com"}); got != "jane@example.com (Jane)" {
		t.Errorf("Unexpected format: %s", got)
	}
	if got := FormatAuthor(Person{Name: "Jane"}); got != "Jane" {
		t.Errorf("Unexpected format: %s", got)
	}
	if got := FormatAuthor(Person{Email: "jane@example.com"}); got != "jane@example.com" {
		t.Errorf("Unexpected format: %s", got)
	}
}

func TestDedupeCategories(t *testing.T) {
	got := DedupeCategories([]string{"Tech", "News", "Tech", " ", "News"})
	if len(got) != 2 {
		t.Fatalf("Expected 2 categories, got: %d", len(got))
	}
	if got[0] != "Tech" || got[1] != "News" {
		t.Errorf("Expected input order preserved, got: %v", got)
	}
}
