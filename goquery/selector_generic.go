package goquery

import "github.com/fwojciec/sift"

// Boilerplate removed from every layout before reading text.
const commonStrip = "script, style, noscript, template, iframe, svg, form, button, nav, header, footer, aside, [role='navigation'], [aria-hidden='true']"

// GenericRules read pages with no recognized layout. They use common HTML
// patterns and class names to separate citations, body copy and chrome.
//
// Rules are tried in order:
//   - references: .references, .footnotes, .citations, cite, .bibliography
//   - navigation: nav, header, footer, aside, [role="navigation"], .menu
//   - body: main, article, .content, .post, .entry-content, then any p or li
func GenericRules() Rules {
	return Rules{
		Content: "main, [role='main'], article, .content, .post, .entry-content, body",
		Strip:   commonStrip + ", .menu, .sidebar, .share, .comments, .advert, .ad",
		Sections: []SectionRule{
			{Selector: ".references a[href], .footnotes a[href], .citations a[href], cite a[href], .bibliography a[href]", Section: sift.SectionReferences},
			{Selector: "nav a[href], header a[href], footer a[href], aside a[href], [role='navigation'] a[href], .menu a[href], .sidebar a[href]", Section: sift.SectionNavigation},
			{Selector: "main a[href], [role='main'] a[href], article a[href], .content a[href], .post a[href], .entry-content a[href]", Section: sift.SectionBody},
			{Selector: "p a[href], li a[href]", Section: sift.SectionBody},
		},
	}
}

// ArticleRules read news and blog pages built around a single <article>.
func ArticleRules() Rules {
	return Rules{
		Content: "article, [itemprop='articleBody'], main, body",
		Strip:   commonStrip + ", .related, .newsletter, .share, .comments, figure figcaption .credit",
		Sections: []SectionRule{
			{Selector: "article .footnotes a[href], article .sources a[href], article cite a[href]", Section: sift.SectionReferences},
			{Selector: "nav a[href], header a[href], footer a[href], aside a[href], .related a[href]", Section: sift.SectionNavigation},
			{Selector: "article a[href], [itemprop='articleBody'] a[href]", Section: sift.SectionBody},
		},
	}
}

// WikipediaRules read MediaWiki articles. Citations live in ordered
// reference lists; navboxes and the sidebar are navigation.
func WikipediaRules() Rules {
	return Rules{
		Content: ".mw-parser-output, #mw-content-text, #content",
		Strip: commonStrip + ", .mw-editsection, .navbox, .vertical-navbox, .infobox, .reflist, ol.references, " +
			".reference, .hatnote, .metadata, .ambox, #toc, .toc, .thumbcaption, .mw-jump-link",
		Sections: []SectionRule{
			{Selector: "ol.references a[href], .reflist a[href], .refbegin a[href]", Section: sift.SectionReferences},
			{Selector: "#mw-panel a[href], #mw-head a[href], .navbox a[href], .vertical-navbox a[href], #toc a[href], #footer a[href], .catlinks a[href]", Section: sift.SectionNavigation},
			{Selector: ".mw-parser-output p a[href], .mw-parser-output li a[href], .mw-parser-output td a[href]", Section: sift.SectionBody},
		},
	}
}
