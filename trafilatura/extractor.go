// Package trafilatura extracts article text with go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/sift"
	siftquery "github.com/fwojciec/sift/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements sift.Extractor at compile time.
var _ sift.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the main content. When a
// Converter is set the content node is rendered to Markdown, otherwise
// trafilatura's plain text is used. Canonical hints and typed outlinks
// come from the goquery extractor.
type Extractor struct {
	meta      *siftquery.Extractor
	converter sift.Converter
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithConverter renders extracted content with c.
func WithConverter(c sift.Converter) Option {
	return func(e *Extractor) {
		e.converter = c
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{meta: siftquery.NewExtractor()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*sift.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, sift.Errorf(sift.EEXTRACTFAILED, "invalid page URL: %v", err)
		}
		opts.OriginalURL = u
	}

	extracted, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "trafilatura: %v", err)
	}

	result, err := e.meta.Metadata(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(extracted.Metadata.Title); title != "" {
		result.Title = title
	}
	if result.Description == "" {
		result.Description = strings.TrimSpace(extracted.Metadata.Description)
	}

	result.Text, err = e.text(extracted, pageURL)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Extractor) text(extracted *trafilatura.ExtractResult, pageURL string) (string, error) {
	if e.converter == nil || extracted.ContentNode == nil {
		return strings.TrimSpace(extracted.ContentText), nil
	}
	contentHTML, err := renderNode(extracted.ContentNode)
	if err != nil {
		return "", sift.Errorf(sift.EEXTRACTFAILED, "rendering content: %v", err)
	}
	if pc, ok := e.converter.(pageConverter); ok {
		return pc.ConvertPage(contentHTML, pageURL)
	}
	return e.converter.Convert(contentHTML)
}

// pageConverter is implemented by converters that resolve relative links.
type pageConverter interface {
	ConvertPage(html string, pageURL string) (string, error)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
