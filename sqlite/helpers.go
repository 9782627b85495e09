package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// paginate applies LIMIT and OFFSET when values are > 0.
func paginate(q sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		if limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			q = q.Limit(uint64(1<<63 - 1))
		}
		q = q.Offset(uint64(offset))
	}
	return q
}

// encodeJSON marshals v for a TEXT column. Nil maps are stored as ''.
func encodeJSON(v any) (string, error) {
	if m, ok := v.(map[string]any); ok && m == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
