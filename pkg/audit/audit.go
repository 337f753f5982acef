// Package audit records best-effort audit entries for stock and order
// mutations. Recording never fails the caller: sink errors are logged.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/pos-backend/pkg/enums"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

// Resource types referenced by audit entries.
const (
	ResourceStock = "stock"
	ResourceOrder = "order"
)

// Entry is one audited mutation.
type Entry struct {
	ActorUserID  *uuid.UUID
	Action       enums.AuditAction
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
	OccurredAt   time.Time
}

// Sink persists or forwards entries.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Recorder fans entries out to every configured sink.
type Recorder struct {
	sinks []Sink
	logg  *logger.Logger
}

// NewRecorder builds a recorder over the non-nil sinks.
func NewRecorder(logg *logger.Logger, sinks ...Sink) *Recorder {
	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &Recorder{sinks: active, logg: logg}
}

// Record writes entry to every sink and logs any failures.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || len(r.sinks) == 0 {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	var errs error
	for _, sink := range r.sinks {
		errs = multierr.Append(errs, sink.Write(ctx, entry))
	}
	if errs == nil || r.logg == nil {
		return
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"audit_action":  entry.Action.String(),
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
		"sink_failures": len(multierr.Errors(errs)),
	})
	r.logg.Warn(logCtx, "audit record failed: "+errs.Error())
}

// Actor returns a pointer to id, or nil for the zero UUID.
func Actor(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
