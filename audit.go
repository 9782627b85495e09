package sift

import (
	"context"
	"time"
)

// Step names a pipeline stage.
type Step string

// Pipeline stages in execution order.
const (
	StepNormalize  Step = "normalize"
	StepExpand     Step = "expand-queries"
	StepCandidates Step = "generate-candidates"
	StepFetch      Step = "fetch"
	StepExtract    Step = "extract"
	StepPersist    Step = "persist"
	StepRun        Step = "run"
)

// Status is the state of a step.
type Status string

// Step states.
const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFail    Status = "fail"
)

// ErrorDetail is the serialized form of a pipeline error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorDetail converts err to an ErrorDetail. Returns nil for a nil error.
func NewErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}
	return &ErrorDetail{Code: ErrorCode(err), Message: ErrorMessage(err)}
}

// AuditEvent records one pipeline decision. Events are append-only.
type AuditEvent struct {
	ID           string         `json:"id"`
	RunID        string         `json:"runId"`
	TopicID      string         `json:"topicId"`
	Seq          int64          `json:"seq"`
	Step         Step           `json:"step"`
	Status       Status         `json:"status"`
	Provider     string         `json:"provider,omitempty"`
	Query        string         `json:"query,omitempty"`
	CandidateURL string         `json:"candidateUrl,omitempty"`
	FinalURL     string         `json:"finalUrl,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	Error        *ErrorDetail   `json:"error,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// EventEmitter publishes audit events.
type EventEmitter interface {
	// Emit records the event. ID, Seq and Timestamp are assigned when zero.
	Emit(ctx context.Context, event *AuditEvent)
}

// EventSubscriber delivers events to handlers as they are emitted.
type EventSubscriber interface {
	// Subscribe registers fn for events of the topic. Handlers run on the
	// emitting goroutine and must not block.
	Subscribe(topicID string, fn func(ctx context.Context, event *AuditEvent)) (unsubscribe func())
}

// AuditStore persists audit events for replay.
type AuditStore interface {
	// AppendEvents stores events in order.
	AppendEvents(ctx context.Context, events []*AuditEvent) error

	// FindEvents retrieves events matching the filter, ordered by run and seq.
	FindEvents(ctx context.Context, filter AuditFilter) ([]*AuditEvent, error)
}

// AuditFilter represents a filter for FindEvents.
type AuditFilter struct {
	RunID   *string `json:"runId"`
	TopicID *string `json:"topicId"`
	Step    *Step   `json:"step"`
	Status  *Status `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
