package extract

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Container classes that mark an image as article-adjacent even when
// it sits outside the detected main-content element.
var containerSelector = ".article, .article-body, .post, .post-content, .post-body, " +
	".entry, .entry-content, .content, .story, .blog-post"

// Path markers for images that are never article content.
var junkMarkers = []string{
	"icon", "logo", "favicon", "avatar", "badge", "button", "1x1", "pixel", "tracking",
}

func (e *Extractor) scanImages(doc *goquery.Document, mainContent *goquery.Selection, baseURL string, opts Options) []ImageCandidate {
	var candidates []ImageCandidate

	inMain := func(img *goquery.Selection) bool {
		if mainContent == nil || len(img.Nodes) == 0 {
			return false
		}
		node := img.Nodes[0]
		found := false
		mainContent.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(s.Nodes) > 0 && s.Nodes[0] == node {
				found = true
				return false
			}
			return true
		})
		return found
	}

	hostname := Hostname(baseURL)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		resolved := ResolveURL(src, baseURL)
		alt := e.imageAlt(img, hostname)
		width := intAttr(img, "width")
		height := intAttr(img, "height")

		if resolved != "" {
			priority := PriorityDefault
			if inMain(img) {
				priority = PriorityMainContent
			} else if img.Closest(containerSelector).Length() > 0 {
				priority = PriorityContainer
			}

			candidates = append(candidates, ImageCandidate{
				URL:      resolved,
				Alt:      alt,
				Width:    width,
				Height:   height,
				Area:     width * height,
				Position: PositionContent,
				Priority: priority,
				Caption:  e.imageCaption(img),
			})
		}

		// srcset variants always rank lowest regardless of location
		if srcset, ok := img.Attr("srcset"); ok {
			for _, srcsetURL := range parseSrcset(srcset) {
				resolvedVariant := ResolveURL(srcsetURL, baseURL)
				if resolvedVariant == "" || resolvedVariant == resolved {
					continue
				}
				candidates = append(candidates, ImageCandidate{
					URL:      resolvedVariant,
					Alt:      alt,
					Position: PositionSrcset,
					Priority: PriorityDefault,
				})
			}
		}
	})

	ogImage := e.metaContent(doc, `meta[property="og:image"]`)
	if resolved := ResolveURL(ogImage, baseURL); resolved != "" {
		candidates = append(candidates, ImageCandidate{
			URL:      resolved,
			Alt:      e.extractTitle(doc, ""),
			Position: PositionOpenGraph,
			Priority: PriorityOpenGraph,
		})
	}

	twitterImage := e.metaContent(doc, `meta[name="twitter:image"]`)
	if resolved := ResolveURL(twitterImage, baseURL); resolved != "" && twitterImage != ogImage {
		candidates = append(candidates, ImageCandidate{
			URL:      resolved,
			Alt:      e.extractTitle(doc, ""),
			Position: PositionTwitter,
			Priority: PriorityTwitter,
		})
	}

	if opts.FilterJunkImages {
		candidates = filterJunk(candidates)
		max := opts.MaxImages
		if max <= 0 {
			max = 10
		}
		if len(candidates) > max {
			candidates = candidates[:max]
		}
	}

	return candidates
}

// imageAlt falls back through the title attribute, a sibling
// figcaption, the parent's title, and finally a generated label.
func (e *Extractor) imageAlt(img *goquery.Selection, hostname string) string {
	if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return strings.TrimSpace(alt)
	}
	if title, ok := img.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if caption := strings.TrimSpace(img.Siblings().Filter("figcaption").First().Text()); caption != "" {
		return caption
	}
	if parentTitle, ok := img.Parent().Attr("title"); ok && strings.TrimSpace(parentTitle) != "" {
		return strings.TrimSpace(parentTitle)
	}
	if hostname != "" {
		return "Image from " + hostname
	}
	return "Image"
}

func (e *Extractor) imageCaption(img *goquery.Selection) string {
	figure := img.Closest("figure")
	if figure.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(figure.Find("figcaption").First().Text())
}

func parseSrcset(srcset string) []string {
	var urls []string
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) > 0 && fields[0] != "" {
			urls = append(urls, fields[0])
		}
	}
	return urls
}

func filterJunk(candidates []ImageCandidate) []ImageCandidate {
	out := make([]ImageCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !junkPath(c.URL) {
			out = append(out, c)
		}
	}
	return out
}

// junkPath matches markers against the URL path only, so hostnames
// like img.logocdn.com or query strings do not drop real candidates.
func junkPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, marker := range junkMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// RankImages flattens candidate lists, deduplicates by exact URL, and
// returns a stable (priority desc, area desc) ordering. On a URL
// collision the higher priority wins, ties go to the larger area, and
// the earliest-seen candidate survives a full tie.
func RankImages(lists ...[]ImageCandidate) []ImageCandidate {
	type slot struct {
		candidate ImageCandidate
		order     int
	}

	index := make(map[string]int)
	var slots []slot
	order := 0

	for _, list := range lists {
		for _, c := range list {
			if c.URL == "" {
				continue
			}
			if i, seen := index[c.URL]; seen {
				existing := slots[i].candidate
				if c.Priority > existing.Priority ||
					(c.Priority == existing.Priority && c.Area > existing.Area) {
					slots[i].candidate = c
				}
				continue
			}
			index[c.URL] = len(slots)
			slots = append(slots, slot{candidate: c, order: order})
			order++
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i].candidate, slots[j].candidate
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Area != b.Area {
			return a.Area > b.Area
		}
		return slots[i].order < slots[j].order
	})

	out := make([]ImageCandidate, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.candidate)
	}
	return out
}

func intAttr(sel *goquery.Selection, name string) int {
	value, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
