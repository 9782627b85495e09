package goquery

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sift"
	"golang.org/x/net/html"
)

// maxContextLength caps the surrounding text kept with an outlink.
const maxContextLength = 280

// sectionRank orders sections when the same URL appears more than once.
var sectionRank = map[string]int{
	sift.SectionReferences: 3,
	sift.SectionBody:       2,
	sift.SectionNavigation: 1,
}

// ExtractOutlinks parses html and returns its links typed by section, using
// the rules of the detected layout.
func ExtractOutlinks(rawHTML string, pageURL string) ([]sift.Outlink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, sift.Errorf(sift.EINVALID, "invalid base URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, sift.Errorf(sift.EINVALID, "failed to parse HTML: %v", err)
	}
	_, rules := NewDefaultRegistry().RulesFor(doc)
	return extractOutlinks(doc, base, rules.Sections), nil
}

// extractOutlinks walks the anchors of doc in document order. An anchor
// takes the section of the first rule it matches. Links are deduplicated
// by URL, keeping the highest ranked section, and keep the position of
// their first occurrence.
func extractOutlinks(doc *goquery.Document, base *url.URL, rules []SectionRule) []sift.Outlink {
	sections := make(map[*html.Node]string)
	for _, rule := range rules {
		doc.Find(rule.Selector).Each(func(_ int, sel *goquery.Selection) {
			node := sel.Get(0)
			if _, ok := sections[node]; !ok {
				sections[node] = rule.Section
			}
		})
	}

	seen := make(map[string]int)
	var links []sift.Outlink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		section, ok := sections[sel.Get(0)]
		if !ok {
			return
		}
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}

		link := sift.Outlink{
			URL:     resolved,
			Title:   collapse(firstNonEmpty(sel.Text(), sel.AttrOr("title", ""))),
			Context: linkContext(sel),
			Section: section,
		}

		if idx, ok := seen[resolved]; ok {
			if sectionRank[section] > sectionRank[links[idx].Section] {
				links[idx] = link
			}
			return
		}
		seen[resolved] = len(links)
		links = append(links, link)
	})

	return links
}

// linkContext returns the text of the closest block around the anchor.
func linkContext(sel *goquery.Selection) string {
	block := sel.Closest("li, p, td, dd, blockquote, figcaption, cite")
	if block.Length() == 0 {
		return ""
	}
	text := collapse(block.Text())
	if utf8.RuneCountInString(text) > maxContextLength {
		text = string([]rune(text)[:maxContextLength]) + "…"
	}
	return text
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed, is not http(s), or
// points back at the page itself. Fragments are stripped.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
