// Package readability extracts article text with go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/sift"
	siftquery "github.com/fwojciec/sift/goquery"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements sift.Extractor at compile time.
var _ sift.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the main article text. The
// canonical hint and typed outlinks come from the goquery extractor,
// since readability discards the page chrome they live in.
type Extractor struct {
	meta *siftquery.Extractor
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{meta: siftquery.NewExtractor()}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*sift.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "empty HTML input")
	}

	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, sift.Errorf(sift.EEXTRACTFAILED, "invalid page URL: %v", err)
		}
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "readability: %v", err)
	}

	result, err := e.meta.Metadata(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(article.Title); title != "" {
		result.Title = title
	}
	if result.Description == "" {
		result.Description = strings.TrimSpace(article.Excerpt)
	}
	result.Text = paragraphs(article.TextContent)
	return result, nil
}

// paragraphs collapses whitespace within lines and drops blank lines.
func paragraphs(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}
