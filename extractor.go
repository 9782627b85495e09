package sift

// Outlink is a link found in a page, typed by where it appeared.
type Outlink struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Context string `json:"context"`

	// Section is "references", "body" or "navigation".
	Section string `json:"section"`
}

// Outlink sections.
const (
	SectionReferences = "references"
	SectionBody       = "body"
	SectionNavigation = "navigation"
)

// ExtractResult holds the content extracted from an HTML page.
type ExtractResult struct {
	Title       string
	Text        string
	Description string

	// CanonicalURLHint comes from <link rel="canonical"> or og:url.
	CanonicalURLHint string

	Outlinks []Outlink
}

// Extractor extracts readable content from HTML pages.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// The pageURL resolves relative links and canonical hints.
	Extract(html string, pageURL string) (*ExtractResult, error)
}
