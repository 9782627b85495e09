package sift

import "context"

// RawInput is the loose topical input supplied by a caller.
type RawInput struct {
	Keywords []string `json:"keywords"`
	Notes    string   `json:"notes"`
}

// Input is RawInput after normalization: keywords are trimmed, non-empty
// and unique; notes are trimmed.
type Input struct {
	Keywords []string `json:"keywords"`
	Notes    string   `json:"notes"`
}

// IsEmpty reports whether the input carries nothing to search for.
func (in Input) IsEmpty() bool {
	return len(in.Keywords) == 0 && in.Notes == ""
}

// QueryProvider turns normalized input into search queries.
// It is the first query expansion strategy tried; implementations
// typically call a language model.
type QueryProvider interface {
	// Queries returns search queries for the input.
	// An empty result makes the caller fall back to heuristic expansion.
	Queries(ctx context.Context, input Input) ([]string, error)
}
