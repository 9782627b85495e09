package goquery

import (
	"slices"

	"github.com/PuerkitoBio/goquery"
)

// SectionRule assigns links matched by Selector to an outlink section.
type SectionRule struct {
	Selector string
	Section  string
}

// Rules describe how to read one page layout.
type Rules struct {
	// Content lists comma separated content root selectors in preference
	// order.
	Content string
	// Strip selects elements removed before reading the text.
	Strip string
	// Sections type outlinks. An anchor takes the section of the first
	// rule it matches; anchors matching no rule are ignored.
	Sections []SectionRule
}

// Registry maps page layouts to extraction rules. It uses a Detector to
// identify the layout and falls back to the generic rules when the layout
// is unknown or has no registered rules.
type Registry struct {
	detector *Detector
	fallback Rules
	rules    map[Layout]Rules
}

// NewRegistry creates a new Registry with the given detector and fallback rules.
func NewRegistry(detector *Detector, fallback Rules) *Registry {
	return &Registry{
		detector: detector,
		fallback: fallback,
		rules:    make(map[Layout]Rules),
	}
}

// NewDefaultRegistry returns a Registry with the built-in layouts registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(NewDetector(), GenericRules())
	r.Register(LayoutWikipedia, WikipediaRules())
	r.Register(LayoutArticle, ArticleRules())
	return r
}

// Get returns the rules for a layout and whether they are registered.
func (r *Registry) Get(layout Layout) (Rules, bool) {
	rules, ok := r.rules[layout]
	return rules, ok
}

// RulesFor detects the layout of doc and returns its rules.
func (r *Registry) RulesFor(doc *goquery.Document) (Layout, Rules) {
	layout := r.detector.Detect(doc)
	if rules, ok := r.rules[layout]; ok {
		return layout, rules
	}
	return layout, r.fallback
}

// Register adds rules for a layout, replacing any previous rules.
func (r *Registry) Register(layout Layout, rules Rules) {
	r.rules[layout] = rules
}

// List returns all registered layouts in name order.
func (r *Registry) List() []Layout {
	layouts := make([]Layout, 0, len(r.rules))
	for l := range r.rules {
		layouts = append(layouts, l)
	}
	slices.Sort(layouts)
	return layouts
}
