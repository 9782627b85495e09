package mock

import "github.com/fwojciec/sift"

var _ sift.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of sift.Extractor.
type Extractor struct {
	ExtractFn func(html string, pageURL string) (*sift.ExtractResult, error)
}

func (e *Extractor) Extract(html string, pageURL string) (*sift.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}
