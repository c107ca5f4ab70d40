package markdown

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/slavikmr/feedpub/app/extract"
)

var excessNewlinesRe = regexp.MustCompile(`\n{3,}`)

// Convert performs the fixed structural HTML-to-Markdown rewrite:
// headings, paragraphs, anchors, images, lists, blockquotes, code and
// horizontal rules. The conversion is intentionally lossy and
// heuristic; ordered list items keep a literal "1." marker and image
// URLs follow the origin-relative resolution policy from the extract
// package. Output feeds the AI rewrite prompt and the publish
// fallback, both of which expect exactly these rules.
func Convert(contentHTML, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	body := doc.Find("body")
	for _, node := range body.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			renderNode(&b, child, baseURL, "")
		}
	}

	out := excessNewlinesRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

// renderNode walks the DOM emitting Markdown. listType carries the
// nearest list ancestor ("ul" or "ol") so list items pick their marker.
func renderNode(b *strings.Builder, n *html.Node, baseURL, listType string) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch n.Data {
	case "script", "style", "noscript", "head":
		return

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(renderChildren(n, baseURL, listType))
		b.WriteString("\n\n" + strings.Repeat("#", level) + " " + text + "\n\n")

	case "p":
		text := strings.TrimSpace(renderChildren(n, baseURL, listType))
		if text == "" {
			return
		}
		b.WriteString("\n\n" + text + "\n\n")

	case "a":
		href := attr(n, "href")
		text := strings.TrimSpace(renderChildren(n, baseURL, listType))
		if href == "" || text == "" {
			b.WriteString(text)
			return
		}
		b.WriteString("[" + text + "](" + href + ")")

	case "img":
		src := extract.ResolveURL(attr(n, "src"), baseURL)
		if src == "" {
			return
		}
		alt := attr(n, "alt")
		if title := attr(n, "title"); title != "" {
			b.WriteString("\n\n![" + alt + "](" + src + " \"" + title + "\")\n\n")
			return
		}
		b.WriteString("\n\n![" + alt + "](" + src + ")\n\n")

	case "ul", "ol":
		b.WriteString("\n\n")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			renderNode(b, child, baseURL, n.Data)
		}
		b.WriteString("\n\n")

	case "li":
		marker := "* "
		if listType == "ol" {
			// Literal "1." for every item; numbering is not renumbered.
			marker = "1. "
		}
		b.WriteString(marker + strings.TrimSpace(renderChildren(n, baseURL, listType)) + "\n")

	case "blockquote":
		text := strings.TrimSpace(renderChildren(n, baseURL, listType))
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		b.WriteString("\n\n" + strings.Join(lines, "\n") + "\n\n")

	case "pre":
		b.WriteString("\n\n```\n" + strings.Trim(textContent(n), "\n") + "\n```\n\n")

	case "code":
		b.WriteString("`" + textContent(n) + "`")

	case "hr":
		b.WriteString("\n\n---\n\n")

	case "br":
		b.WriteString("\n")

	default:
		b.WriteString(renderChildren(n, baseURL, listType))
	}
}

func renderChildren(n *html.Node, baseURL, listType string) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderNode(&b, child, baseURL, listType)
	}
	return b.String()
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
