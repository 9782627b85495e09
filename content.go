package sift

import (
	"context"
	"time"
)

// Content is a persisted content record. A canonical URL maps to at most
// one Content, both within a topic and globally.
type Content struct {
	ID           string    `json:"id"`
	TopicID      string    `json:"topicId"`
	RunID        string    `json:"runId"`
	Title        string    `json:"title"`
	SourceURL    string    `json:"sourceUrl"`
	CanonicalURL string    `json:"canonicalUrl"`
	Domain       string    `json:"domain"`
	ContentHash  string    `json:"contentHash"`
	Fingerprint  string    `json:"fingerprint"`
	Summary      string    `json:"summary"`
	Provenance   string    `json:"provenance"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate returns an error if the content contains invalid fields.
func (c *Content) Validate() error {
	if c.TopicID == "" {
		return Errorf(EINVALID, "content topic ID required")
	}
	if c.CanonicalURL == "" {
		return Errorf(EINVALID, "content canonical URL required")
	}
	if c.ContentHash == "" {
		return Errorf(EINVALID, "content hash required")
	}
	return nil
}

// ContentService represents a service for managing persisted content.
type ContentService interface {
	// CreateContent creates a new content record.
	// Returns ECONFLICT if the canonical URL is already stored.
	CreateContent(ctx context.Context, content *Content) error

	// FindContentByID retrieves content by ID.
	// Returns ENOTFOUND if content does not exist.
	FindContentByID(ctx context.Context, id string) (*Content, error)

	// FindContentByHash retrieves content in a topic by exact content hash.
	// Returns ENOTFOUND if no content matches.
	FindContentByHash(ctx context.Context, topicID, hash string) (*Content, error)

	// FindContents retrieves content matching the filter.
	FindContents(ctx context.Context, filter ContentFilter) ([]*Content, error)
}

// ContentFilter represents a filter for FindContents.
type ContentFilter struct {
	ID           *string `json:"id"`
	TopicID      *string `json:"topicId"`
	RunID        *string `json:"runId"`
	CanonicalURL *string `json:"canonicalUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
