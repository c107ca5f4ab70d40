package markdown

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderHTML converts Markdown into the HTML body submitted to
// publishing destinations.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	headingMarkerRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	imageRe         = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe          = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	boldRe          = regexp.MustCompile(`\*\*([^*]*)\*\*|__([^_]*)__`)
	italicRe        = regexp.MustCompile(`\*([^*]*)\*|_([^_]*)_`)
	excerptSpaceRe  = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text summary from Markdown by stripping
// heading markers, images, links (keeping their text), and
// bold/italic markup, then cutting at maxLen on a word boundary.
func Excerpt(markdown string, maxLen int) string {
	text := imageRe.ReplaceAllString(markdown, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingMarkerRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1$2")
	text = italicRe.ReplaceAllString(text, "$1$2")
	text = strings.TrimSpace(excerptSpaceRe.ReplaceAllString(text, " "))

	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	// Back up to a rune boundary so multibyte text is never cut
	// mid-sequence.
	end := maxLen
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}

	cut := text[:end]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// FirstHeading returns the text of the first level-1 heading line.
func FirstHeading(markdown string) (string, bool) {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# ")), true
		}
	}
	return "", false
}
