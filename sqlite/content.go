package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fwojciec/sift"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sift.ContentService = (*ContentService)(nil)

var contentColumns = []string{
	"id", "topic_id", "run_id", "title", "source_url", "canonical_url", "domain",
	"content_hash", "fingerprint", "summary", "provenance", "created_at",
}

// ContentService implements sift.ContentService using SQLite.
type ContentService struct {
	db *DB
}

// NewContentService creates a new ContentService.
func NewContentService(db *DB) *ContentService {
	return &ContentService{db: db}
}

// CreateContent inserts content. The canonical URL is unique per topic and
// globally; a second insert returns ECONFLICT and leaves the first intact.
func (s *ContentService) CreateContent(ctx context.Context, content *sift.Content) error {
	if err := content.Validate(); err != nil {
		return err
	}

	content.ID = uuid.New().String()
	content.CreatedAt = time.Now().UTC()

	query, args, err := sq.Insert("contents").
		Columns(contentColumns...).
		Values(content.ID, content.TopicID, content.RunID, content.Title, content.SourceURL,
			content.CanonicalURL, content.Domain, content.ContentHash, content.Fingerprint,
			content.Summary, content.Provenance, formatTime(content.CreatedAt)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		content.ID = ""
		return conflict(err, "content already stored for %s", content.CanonicalURL)
	}
	return nil
}

// FindContentByID retrieves content by ID.
func (s *ContentService) FindContentByID(ctx context.Context, id string) (*sift.Content, error) {
	contents, err := s.FindContents(ctx, sift.ContentFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, sift.Errorf(sift.ENOTFOUND, "content not found")
	}
	return contents[0], nil
}

// FindContentByHash retrieves the first content in a topic with the hash.
func (s *ContentService) FindContentByHash(ctx context.Context, topicID, hash string) (*sift.Content, error) {
	query, args, err := sq.Select(contentColumns...).
		From("contents").
		Where(sq.Eq{"topic_id": topicID, "content_hash": hash}).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	content, err := scanContent(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sift.Errorf(sift.ENOTFOUND, "content not found")
	}
	return content, err
}

// FindContents retrieves content matching the filter, newest first.
func (s *ContentService) FindContents(ctx context.Context, filter sift.ContentFilter) ([]*sift.Content, error) {
	where := sq.Eq{}
	if filter.ID != nil {
		where["id"] = *filter.ID
	}
	if filter.TopicID != nil {
		where["topic_id"] = *filter.TopicID
	}
	if filter.RunID != nil {
		where["run_id"] = *filter.RunID
	}
	if filter.CanonicalURL != nil {
		where["canonical_url"] = *filter.CanonicalURL
	}

	q := sq.Select(contentColumns...).From("contents").OrderBy("created_at DESC", "id")
	if len(where) > 0 {
		q = q.Where(where)
	}
	query, args, err := paginate(q, filter.Limit, filter.Offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*sift.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(row scanner) (*sift.Content, error) {
	var c sift.Content
	var createdAt string
	if err := row.Scan(&c.ID, &c.TopicID, &c.RunID, &c.Title, &c.SourceURL, &c.CanonicalURL,
		&c.Domain, &c.ContentHash, &c.Fingerprint, &c.Summary, &c.Provenance, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
