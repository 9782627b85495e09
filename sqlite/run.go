package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fwojciec/sift"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sift.RunService = (*RunService)(nil)

var runColumns = []string{
	"id", "run_id", "topic_id", "status", "started_at", "completed_at",
	"meta", "error_code", "error_message",
}

// RunService implements sift.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRunSummary stores a finished run.
func (s *RunService) CreateRunSummary(ctx context.Context, summary *sift.RunSummary) error {
	if summary.RunID == "" {
		return sift.Errorf(sift.EINVALID, "run ID required")
	}
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}

	meta, err := json.Marshal(summary.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode run meta: %w", err)
	}
	var code, message string
	if summary.Error != nil {
		code, message = summary.Error.Code, summary.Error.Message
	}

	query, args, err := sq.Insert("runs").
		Columns(runColumns...).
		Values(summary.ID, summary.RunID, summary.TopicID, summary.Status,
			formatTime(summary.StartedAt), formatTime(summary.CompletedAt),
			string(meta), code, message).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return conflict(err, "run %s already recorded", summary.RunID)
	}
	return nil
}

// FindRunSummaryByRunID retrieves the summary of a run.
func (s *RunService) FindRunSummaryByRunID(ctx context.Context, runID string) (*sift.RunSummary, error) {
	query, args, err := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	summary, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sift.Errorf(sift.ENOTFOUND, "run not found")
	}
	return summary, err
}

// FindRunSummaries retrieves summaries matching the filter, newest first.
func (s *RunService) FindRunSummaries(ctx context.Context, filter sift.RunFilter) ([]*sift.RunSummary, error) {
	where := sq.Eq{}
	if filter.TopicID != nil {
		where["topic_id"] = *filter.TopicID
	}
	if filter.Status != nil {
		where["status"] = *filter.Status
	}

	q := sq.Select(runColumns...).From("runs").OrderBy("started_at DESC", "id")
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

	var summaries []*sift.RunSummary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanRun(row scanner) (*sift.RunSummary, error) {
	var r sift.RunSummary
	var startedAt, completedAt, meta, code, message string
	if err := row.Scan(&r.ID, &r.RunID, &r.TopicID, &r.Status, &startedAt, &completedAt,
		&meta, &code, &message); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if r.CompletedAt, err = parseRFC3339(completedAt, "completed_at"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &r.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode run meta: %w", err)
	}
	if code != "" {
		r.Error = &sift.ErrorDetail{Code: code, Message: message}
	}
	return &r, nil
}
