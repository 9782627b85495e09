package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fwojciec/sift"
)

// DefaultMaxQueries caps query expansion.
const DefaultMaxQueries = 20

// DefaultSites is the allowlist of high-signal sites used for site:
// query variants.
var DefaultSites = []string{"wikipedia.org", "arxiv.org", "reuters.com"}

// Query expansion strategies, reported in audit metadata.
const (
	StrategyProvider = "provider"
	StrategyKeywords = "keywords"
	StrategyNotes    = "notes"
)

var (
	quotedRe = regexp.MustCompile(`["“”]([^"“”]+)["“”]`)
	clauseRe = regexp.MustCompile(`[,;\n]`)
)

// NormalizeInput trims keywords and notes, dropping empty and repeated
// keywords. Keyword comparison ignores case; the first spelling wins.
func NormalizeInput(raw sift.RawInput) sift.Input {
	in := sift.Input{Notes: strings.TrimSpace(raw.Notes)}
	seen := make(map[string]bool, len(raw.Keywords))
	for _, kw := range raw.Keywords {
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		in.Keywords = append(in.Keywords, kw)
	}
	return in
}

// QueryExpander turns normalized input into search queries using three
// ordered strategies: the injected provider, keyword phrases with site
// variants, then phrases taken from notes.
type QueryExpander struct {
	// Provider is tried first. Nil skips it.
	Provider sift.QueryProvider

	// Sites is the allowlist for site: variants. Nil uses DefaultSites.
	Sites []string

	// MaxQueries caps the result. Zero uses DefaultMaxQueries.
	MaxQueries int
}

// Expand returns queries and the strategy that produced them.
// Returns ENOQUERYINPUT when every strategy comes up empty.
func (e *QueryExpander) Expand(ctx context.Context, in sift.Input) ([]string, string, error) {
	if e.Provider != nil {
		queries, err := e.Provider.Queries(ctx, in)
		if err != nil {
			slog.WarnContext(ctx, "query provider failed", "err", err)
		} else if queries = e.limit(queries); len(queries) > 0 {
			return queries, StrategyProvider, nil
		}
	}

	if queries := e.limit(e.keywordQueries(in.Keywords)); len(queries) > 0 {
		return queries, StrategyKeywords, nil
	}

	if queries := e.limit(notePhrases(in.Notes)); len(queries) > 0 {
		return queries, StrategyNotes, nil
	}

	return nil, "", sift.Errorf(sift.ENOQUERYINPUT, "no keywords or notes to search for")
}

func (e *QueryExpander) keywordQueries(keywords []string) []string {
	sites := e.Sites
	if sites == nil {
		sites = DefaultSites
	}
	queries := make([]string, 0, len(keywords)*(len(sites)+1))
	for _, kw := range keywords {
		queries = append(queries, quote(kw))
	}
	for _, kw := range keywords {
		for _, site := range sites {
			queries = append(queries, fmt.Sprintf("%s site:%s", quote(kw), site))
		}
	}
	return queries
}

// limit trims, dedupes and caps queries.
func (e *QueryExpander) limit(queries []string) []string {
	maxQueries := e.MaxQueries
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	out := make([]string, 0, min(len(queries), maxQueries))
	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == maxQueries {
			break
		}
	}
	return out
}

// notePhrases returns quoted substrings of notes, or failing that its
// comma and semicolon separated clauses.
func notePhrases(notes string) []string {
	if notes == "" {
		return nil
	}
	var phrases []string
	for _, m := range quotedRe.FindAllStringSubmatch(notes, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			phrases = append(phrases, quote(p))
		}
	}
	if len(phrases) > 0 {
		return phrases
	}
	for _, clause := range clauseRe.Split(notes, -1) {
		if clause = strings.Join(strings.Fields(clause), " "); clause != "" {
			phrases = append(phrases, clause)
		}
	}
	return phrases
}

func quote(s string) string {
	return `"` + strings.Trim(s, `"`) + `"`
}
