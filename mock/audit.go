package mock

import (
	"context"

	"github.com/fwojciec/sift"
)

var (
	_ sift.AuditStore   = (*AuditStore)(nil)
	_ sift.EventEmitter = (*EventEmitter)(nil)
)

// AuditStore is a mock implementation of sift.AuditStore.
type AuditStore struct {
	AppendEventsFn func(ctx context.Context, events []*sift.AuditEvent) error
	FindEventsFn   func(ctx context.Context, filter sift.AuditFilter) ([]*sift.AuditEvent, error)
}

func (s *AuditStore) AppendEvents(ctx context.Context, events []*sift.AuditEvent) error {
	return s.AppendEventsFn(ctx, events)
}

func (s *AuditStore) FindEvents(ctx context.Context, filter sift.AuditFilter) ([]*sift.AuditEvent, error) {
	return s.FindEventsFn(ctx, filter)
}

// EventEmitter is a mock implementation of sift.EventEmitter.
type EventEmitter struct {
	EmitFn func(ctx context.Context, event *sift.AuditEvent)
}

func (e *EventEmitter) Emit(ctx context.Context, event *sift.AuditEvent) {
	e.EmitFn(ctx, event)
}
