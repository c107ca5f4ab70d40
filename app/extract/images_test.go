package extract

import (
	"testing"
)

func extractImages(t *testing.T, html, baseURL string, opts Options) []ImageCandidate {
	t.Helper()
	extractor := NewExtractor()
	content, err := extractor.Run([]byte(html), baseURL, opts)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return content.Images
}

func findByURL(images []ImageCandidate, url string) *ImageCandidate {
	for i := range images {
		if images[i].URL == url {
			return &images[i]
		}
	}
	return nil
}

func TestScanImagePriorities(t *testing.T) {
	html := `<html><body>
	  <img src="/outside.jpg" alt="outside">
	  <div class="post-body"><img src="/container.jpg" alt="container"></div>
	  <article><p>text</p><img src="/inside.jpg" alt="inside"></article>
	</body></html>`

	images := extractImages(t, html, "http://example.com/post", Options{})

	inside := findByURL(images, "http://example.com/inside.jpg")
	if inside == nil || inside.Priority != PriorityMainContent {
		t.Errorf("Expected main-content image priority 3, got: %+v", inside)
	}

	container := findByURL(images, "http://example.com/container.jpg")
	if container == nil || container.Priority != PriorityContainer {
		t.Errorf("Expected container image priority 2, got: %+v", container)
	}

	outside := findByURL(images, "http://example.com/outside.jpg")
	if outside == nil || outside.Priority != PriorityDefault {
		t.Errorf("Expected default priority 1, got: %+v", outside)
	}
}

func TestScanSrcsetVariants(t *testing.T) {
	html := `<html><body>
	  <article><p>x</p><img src="/main.jpg" alt="pic" srcset="/small.jpg 480w, /large.jpg 1200w"></article>
	</body></html>`

	images := extractImages(t, html, "http://example.com", Options{})

	small := findByURL(images, "http://example.com/small.jpg")
	if small == nil {
		t.Fatal("Expected srcset variant to be a candidate")
	}
	if small.Priority != PriorityDefault {
		t.Errorf("Expected srcset variant priority 1 regardless of location, got: %v", small.Priority)
	}
	if small.Position != PositionSrcset {
		t.Errorf("Expected srcset position, got: %s", small.Position)
	}
}

func TestScanMetadataImages(t *testing.T) {
	html := `<html><head>
	  <title>Title</title>
	  <meta property="og:image" content="https://cdn.example.com/og.jpg">
	  <meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
	</head><body></body></html>`

	images := extractImages(t, html, "http://example.com", Options{})

	og := findByURL(images, "https://cdn.example.com/og.jpg")
	if og == nil || og.Priority != PriorityOpenGraph {
		t.Errorf("Expected og:image priority 4, got: %+v", og)
	}

	tw := findByURL(images, "https://cdn.example.com/tw.jpg")
	if tw == nil || tw.Priority != PriorityTwitter {
		t.Errorf("Expected twitter:image priority 3.5, got: %+v", tw)
	}
}

func TestScanTwitterImageSkippedWhenSameAsOG(t *testing.T) {
	html := `<html><head>
	  <meta property="og:image" content="https://cdn.example.com/same.jpg">
	  <meta name="twitter:image" content="https://cdn.example.com/same.jpg">
	</head><body></body></html>`

	images := extractImages(t, html, "http://example.com", Options{})

	count := 0
	for _, img := range images {
		if img.URL == "https://cdn.example.com/same.jpg" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected twitter:image to be skipped when identical to og:image, got %d candidates", count)
	}
}

func TestScanAltFallbackChain(t *testing.T) {
	html := `<html><body>
	  <figure><img src="/no-alt.jpg"><figcaption>Figure caption</figcaption></figure>
	  <img src="/nothing.jpg">
	</body></html>`

	images := extractImages(t, html, "http://example.com", Options{})

	captioned := findByURL(images, "http://example.com/no-alt.jpg")
	if captioned == nil || captioned.Alt != "Figure caption" {
		t.Errorf("Expected figcaption alt fallback, got: %+v", captioned)
	}

	bare := findByURL(images, "http://example.com/nothing.jpg")
	if bare == nil || bare.Alt != "Image from example.com" {
		t.Errorf("Expected generated alt, got: %+v", bare)
	}
}

func TestScanJunkFilterAndCap(t *testing.T) {
	html := `<html><body>
	  <img src="/logo.png" alt="logo">
	  <img src="/favicon.ico" alt="x">
	  <img src="/tracking-pixel.gif" alt="x">
	  <img src="/photo-1.jpg" alt="x">
	  <img src="/photo-2.jpg" alt="x">
	</body></html>`

	images := extractImages(t, html, "http://example.com", Options{FilterJunkImages: true, MaxImages: 10})

	if findByURL(images, "http://example.com/logo.png") != nil {
		t.Error("Expected logo to be filtered")
	}
	if findByURL(images, "http://example.com/favicon.ico") != nil {
		t.Error("Expected favicon to be filtered")
	}
	if findByURL(images, "http://example.com/tracking-pixel.gif") != nil {
		t.Error("Expected tracking pixel to be filtered")
	}
	if findByURL(images, "http://example.com/photo-1.jpg") == nil {
		t.Error("Expected regular photo to survive")
	}
}

func TestScanJunkFilterPathOnly(t *testing.T) {
	html := `<html><body>
	  <img src="https://img.logocdn.com/photo.jpg" alt="x">
	  <img src="/photo.jpg?size=icon" alt="x">
	  <img src="/icons/arrow.png" alt="x">
	</body></html>`

	images := extractImages(t, html, "http://example.com", Options{FilterJunkImages: true, MaxImages: 10})

	if findByURL(images, "https://img.logocdn.com/photo.jpg") == nil {
		t.Error("Expected marker in hostname to be ignored")
	}
	if findByURL(images, "http://example.com/photo.jpg?size=icon") == nil {
		t.Error("Expected marker in query string to be ignored")
	}
	if findByURL(images, "http://example.com/icons/arrow.png") != nil {
		t.Error("Expected marker in path to filter the candidate")
	}
}

func TestScanImageCap(t *testing.T) {
	html := "<html><body>"
	for i := 0; i < 15; i++ {
		html += `<img src="/photo-` + string(rune('a'+i)) + `.jpg" alt="x">`
	}
	html += "</body></html>"

	images := extractImages(t, html, "http://example.com", Options{FilterJunkImages: true, MaxImages: 10})
	if len(images) > 10 {
		t.Errorf("Expected candidate list capped at 10, got: %d", len(images))
	}
}

func TestRankImagesDedup(t *testing.T) {
	ranked := RankImages(
		[]ImageCandidate{{URL: "http://x/a.jpg", Priority: 1, Area: 100}},
		[]ImageCandidate{{URL: "http://x/a.jpg", Priority: 3, Area: 50}},
	)

	if len(ranked) != 1 {
		t.Fatalf("Expected 1 candidate after dedup, got: %d", len(ranked))
	}
	if ranked[0].Priority != 3 {
		t.Errorf("Expected higher priority to survive, got: %v", ranked[0].Priority)
	}
}

func TestRankImagesOrder(t *testing.T) {
	ranked := RankImages([]ImageCandidate{
		{URL: "http://x/A", Priority: 1, Area: 100},
		{URL: "http://x/B", Priority: 2, Area: 1},
	})

	if len(ranked) != 2 {
		t.Fatalf("Expected 2 candidates, got: %d", len(ranked))
	}
	if ranked[0].URL != "http://x/B" || ranked[1].URL != "http://x/A" {
		t.Errorf("Expected [B, A], got: [%s, %s]", ranked[0].URL, ranked[1].URL)
	}
}

func TestRankImagesAreaTieBreak(t *testing.T) {
	ranked := RankImages([]ImageCandidate{
		{URL: "http://x/small", Priority: 2, Area: 10},
		{URL: "http://x/large", Priority: 2, Area: 5000},
	})

	if ranked[0].URL != "http://x/large" {
		t.Errorf("Expected larger area first on equal priority, got: %s", ranked[0].URL)
	}
}

func TestRankImagesEqualTieKeepsEarliest(t *testing.T) {
	ranked := RankImages([]ImageCandidate{
		{URL: "http://x/first", Priority: 1, Area: 0},
		{URL: "http://x/second", Priority: 1, Area: 0},
	})

	if ranked[0].URL != "http://x/first" {
		t.Errorf("Expected earliest-seen first on full tie, got: %s", ranked[0].URL)
	}
}

func TestRankImagesNoDuplicateURLs(t *testing.T) {
	ranked := RankImages(
		[]ImageCandidate{
			{URL: "http://x/a", Priority: 1},
			{URL: "http://x/b", Priority: 2},
			{URL: "http://x/a", Priority: 2},
		},
		[]ImageCandidate{
			{URL: "http://x/b", Priority: 4},
		},
	)

	seen := make(map[string]bool)
	for _, c := range ranked {
		if seen[c.URL] {
			t.Errorf("Duplicate URL in ranked output: %s", c.URL)
		}
		seen[c.URL] = true
	}
}
