package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fwojciec/sift"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sift.AuditStore = (*AuditStore)(nil)

var auditColumns = []string{
	"id", "run_id", "topic_id", "seq", "step", "status", "provider", "query",
	"candidate_url", "final_url", "meta", "error_code", "error_message", "created_at",
}

// AuditStore implements sift.AuditStore using SQLite.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// AppendEvents stores events in a single transaction.
func (s *AuditStore) AppendEvents(ctx context.Context, events []*sift.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	insert := sq.Insert("audit_events").Columns(auditColumns...)
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		meta, err := encodeJSON(e.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode event meta: %w", err)
		}
		var code, message string
		if e.Error != nil {
			code, message = e.Error.Code, e.Error.Message
		}
		insert = insert.Values(e.ID, e.RunID, e.TopicID, e.Seq, string(e.Step), string(e.Status),
			e.Provider, e.Query, e.CandidateURL, e.FinalURL, meta, code, message, formatTime(e.Timestamp))
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return conflict(err, "audit event already stored")
	}
	return tx.Commit()
}

// FindEvents retrieves events matching the filter in emission order.
func (s *AuditStore) FindEvents(ctx context.Context, filter sift.AuditFilter) ([]*sift.AuditEvent, error) {
	where := sq.Eq{}
	if filter.RunID != nil {
		where["run_id"] = *filter.RunID
	}
	if filter.TopicID != nil {
		where["topic_id"] = *filter.TopicID
	}
	if filter.Step != nil {
		where["step"] = string(*filter.Step)
	}
	if filter.Status != nil {
		where["status"] = string(*filter.Status)
	}

	// Within a run seq is authoritative; across runs events interleave by time.
	order := []string{"created_at ASC", "seq ASC"}
	if filter.RunID != nil {
		order = []string{"seq ASC"}
	}
	q := sq.Select(auditColumns...).From("audit_events").OrderBy(order...)
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

	var events []*sift.AuditEvent
	for rows.Next() {
		var e sift.AuditEvent
		var step, status, meta, code, message, createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.TopicID, &e.Seq, &step, &status, &e.Provider,
			&e.Query, &e.CandidateURL, &e.FinalURL, &meta, &code, &message, &createdAt); err != nil {
			return nil, err
		}
		e.Step = sift.Step(step)
		e.Status = sift.Status(status)
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &e.Meta); err != nil {
				return nil, fmt.Errorf("failed to decode event meta: %w", err)
			}
		}
		if code != "" {
			e.Error = &sift.ErrorDetail{Code: code, Message: message}
		}
		if e.Timestamp, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
