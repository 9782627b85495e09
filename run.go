package sift

import (
	"context"
	"time"
)

// Run states.
const (
	RunOK   = "ok"
	RunFail = "fail"
)

// Attempts counts stage attempts charged against the circuit breaker.
type Attempts struct {
	Total  int          `json:"total"`
	ByStep map[Step]int `json:"byStep"`
}

// RunMeta holds the counters of a finished run.
type RunMeta struct {
	Attempts     Attempts       `json:"attempts"`
	Duplicates   int            `json:"duplicates"`
	ItemsSaved   int            `json:"itemsSaved"`
	Rejected     int            `json:"rejected"`
	Fallbacks    int            `json:"fallbacks"`
	ErrorsByCode map[string]int `json:"errorsByCode"`
}

// RunSummary is the final record of a run. Exactly one is stored per run.
type RunSummary struct {
	ID          string       `json:"id"`
	RunID       string       `json:"runId"`
	TopicID     string       `json:"topicId"`
	Status      string       `json:"status"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Meta        RunMeta      `json:"meta"`
	Error       *ErrorDetail `json:"error,omitempty"`
}

// RunService represents a service for storing run summaries.
type RunService interface {
	// CreateRunSummary stores a finished run.
	// Returns ECONFLICT if a summary for the run ID already exists.
	CreateRunSummary(ctx context.Context, summary *RunSummary) error

	// FindRunSummaryByRunID retrieves the summary of a run.
	// Returns ENOTFOUND if the run has no summary.
	FindRunSummaryByRunID(ctx context.Context, runID string) (*RunSummary, error)

	// FindRunSummaries retrieves summaries matching the filter, newest first.
	FindRunSummaries(ctx context.Context, filter RunFilter) ([]*RunSummary, error)
}

// RunFilter represents a filter for FindRunSummaries.
type RunFilter struct {
	TopicID *string `json:"topicId"`
	Status  *string `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
