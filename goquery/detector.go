package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout identifies the page structure used to pick extraction rules.
type Layout string

// Known page layouts.
const (
	LayoutGeneric   Layout = "generic"
	LayoutWikipedia Layout = "wikipedia"
	LayoutArticle   Layout = "article"
)

// Detector identifies page layouts from parsed HTML.
// It checks meta generator tags first, then structural markers that are
// specific to each layout.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the layout of doc. Returns LayoutGeneric when no specific
// layout is recognized.
func (d *Detector) Detect(doc *goquery.Document) Layout {
	if layout := d.detectFromMetaGenerator(doc); layout != LayoutGeneric {
		return layout
	}

	// MediaWiki skins all render the parser output container.
	if d.hasSelector(doc, "#mw-content-text") ||
		d.hasSelector(doc, ".mw-parser-output") {
		return LayoutWikipedia
	}

	// News and blog pages mark themselves up as a single article.
	if d.hasOGType(doc, "article") ||
		doc.Find("article").Length() == 1 ||
		d.hasSelector(doc, "[itemtype$='NewsArticle'], [itemtype$='BlogPosting']") {
		return LayoutArticle
	}

	return LayoutGeneric
}

func (d *Detector) detectFromMetaGenerator(doc *goquery.Document) Layout {
	generator := strings.ToLower(doc.Find("meta[name='generator']").AttrOr("content", ""))
	if strings.Contains(generator, "mediawiki") {
		return LayoutWikipedia
	}
	return LayoutGeneric
}

// hasSelector checks if the document contains at least one element matching the selector.
func (d *Detector) hasSelector(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

func (d *Detector) hasOGType(doc *goquery.Document, kind string) bool {
	ogType := doc.Find("meta[property='og:type']").AttrOr("content", "")
	return strings.EqualFold(strings.TrimSpace(ogType), kind)
}
