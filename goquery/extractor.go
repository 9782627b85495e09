// Package goquery reads pages with CSS selectors: layout detection, text,
// metadata and typed outlinks.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sift"
)

// Ensure Extractor implements sift.Extractor at compile time.
var _ sift.Extractor = (*Extractor)(nil)

// blockSelector matches elements read as separate text blocks.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote, dd, dt, figcaption, td, th"

// Extractor reads title, text, metadata and typed outlinks using the
// rules of the detected page layout.
type Extractor struct {
	registry *Registry
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRegistry replaces the default layout registry.
func WithRegistry(r *Registry) Option {
	return func(e *Extractor) {
		e.registry = r
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{registry: NewDefaultRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*sift.ExtractResult, error) {
	doc, base, err := parse(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}
	_, rules := e.registry.RulesFor(doc)

	result := metadata(doc, base)
	result.Outlinks = extractOutlinks(doc, base, rules.Sections)
	result.Text = readText(doc, rules)
	return result, nil
}

// Metadata returns the title, description, canonical hint and outlinks of
// a page without reading its text. Extractors built on other content
// libraries use it to fill the fields those libraries do not provide.
func (e *Extractor) Metadata(rawHTML string, pageURL string) (*sift.ExtractResult, error) {
	doc, base, err := parse(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}
	_, rules := e.registry.RulesFor(doc)

	result := metadata(doc, base)
	result.Outlinks = extractOutlinks(doc, base, rules.Sections)
	return result, nil
}

func parse(rawHTML, pageURL string) (*goquery.Document, *url.URL, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, nil, sift.Errorf(sift.EEXTRACTFAILED, "empty HTML input")
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, sift.Errorf(sift.EEXTRACTFAILED, "invalid page URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, nil, sift.Errorf(sift.EEXTRACTFAILED, "failed to parse HTML: %v", err)
	}
	return doc, base, nil
}

func metadata(doc *goquery.Document, base *url.URL) *sift.ExtractResult {
	return &sift.ExtractResult{
		Title: collapse(firstNonEmpty(
			metaContent(doc, "meta[property='og:title']"),
			doc.Find("h1").First().Text(),
			doc.Find("title").First().Text(),
		)),
		Description: collapse(firstNonEmpty(
			metaContent(doc, "meta[name='description']"),
			metaContent(doc, "meta[property='og:description']"),
			metaContent(doc, "meta[name='twitter:description']"),
		)),
		CanonicalURLHint: canonicalHint(doc, base),
	}
}

// canonicalHint returns the absolute <link rel="canonical"> target, or
// og:url when the page declares no canonical link.
func canonicalHint(doc *goquery.Document, base *url.URL) string {
	candidates := []string{
		doc.Find("link[rel~='canonical']").First().AttrOr("href", ""),
		metaContent(doc, "meta[property='og:url']"),
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		ref, err := url.Parse(c)
		if err != nil {
			continue
		}
		u := base.ResolveReference(ref)
		if u.Scheme == "http" || u.Scheme == "https" {
			return u.String()
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	return doc.Find(selector).First().AttrOr("content", "")
}

// readText strips boilerplate from the content root and joins its leaf
// text blocks with blank lines. Nested blocks are read once, at the
// innermost level.
func readText(doc *goquery.Document, rules Rules) string {
	root := contentRoot(doc, rules.Content)
	if rules.Strip != "" {
		root.Find(rules.Strip).Remove()
	}

	var blocks []string
	root.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		if sel.Find(blockSelector).Length() > 0 {
			return
		}
		if text := collapse(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return collapse(root.Text())
	}
	return strings.Join(blocks, "\n\n")
}

// contentRoot returns the first element matching the content selectors,
// tried in order, or the whole document.
func contentRoot(doc *goquery.Document, selectors string) *goquery.Selection {
	for _, s := range strings.Split(selectors, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if sel := doc.Find(s).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Selection
}
