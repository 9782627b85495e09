package sift

// Candidate is a URL proposed by a search provider, awaiting fetch.
// A candidate is consumed exactly once or discarded on a dedup hit.
type Candidate struct {
	URL           string  `json:"url"`
	Title         string  `json:"title,omitempty"`
	SourceQuery   string  `json:"sourceQuery"`
	NormalizedURL string  `json:"normalizedUrl"`
	URLHash       string  `json:"urlHash"`
	Source        string  `json:"source"`
	Priority      float64 `json:"priority"`
}
