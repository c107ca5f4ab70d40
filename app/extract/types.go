package extract

// Image candidate positions, recorded for ranking and debugging.
const (
	PositionContent        = "content"
	PositionSrcset         = "srcset"
	PositionOpenGraph      = "og:image"
	PositionTwitter        = "twitter:image"
	PositionMediaThumbnail = "media:thumbnail"
	PositionMediaContent   = "media:content"
)

// Priorities assigned during the page scan. Metadata images outrank
// everything found in the markup.
const (
	PriorityOpenGraph   = 4.0
	PriorityTwitter     = 3.5
	PriorityMainContent = 3.0
	PriorityContainer   = 2.0
	PriorityDefault     = 1.0
)

type ImageCandidate struct {
	URL      string  `json:"url"`
	Alt      string  `json:"alt"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Area     int     `json:"area"` // width*height when both known, else 0
	Position string  `json:"position"`
	Priority float64 `json:"priority"`
	Caption  string  `json:"caption,omitempty"`
}

// Content is the result of extracting a fetched HTML document.
type Content struct {
	Title           string
	MetaDescription string
	Author          string
	PublishDate     string
	ContentHTML     string
	ContentText     string
	Images          []ImageCandidate
}

// Options control the extraction pass.
type Options struct {
	// FallbackTitle is used when the document has no <title>.
	FallbackTitle string

	// SkipPublishDate suppresses the publish-date selector search when
	// the date is already known from feed metadata.
	SkipPublishDate bool

	// ExtraContentSelectors are site-specific selectors tried after the
	// standard content list (single-URL processing path).
	ExtraContentSelectors []string

	// FilterJunkImages drops icon/logo/tracking-pixel candidates and
	// caps the scan at MaxImages (single-URL processing path).
	FilterJunkImages bool
	MaxImages        int
}
