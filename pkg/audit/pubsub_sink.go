package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/pubsub"
)

const (
	envelopeVersion       = 1
	defaultPublishTimeout = 15 * time.Second
)

// Envelope is the JSON body published for each audit entry.
type Envelope struct {
	Version      int            `json:"version"`
	EventID      string         `json:"eventId"`
	OccurredAt   time.Time      `json:"occurredAt"`
	ActorUserID  *uuid.UUID     `json:"actorUserId,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// PubSubSink publishes entries to the audit topic without waiting for the ack.
type PubSubSink struct {
	publisher pubsub.Publisher
	logg      *logger.Logger
	timeout   time.Duration
}

// NewPubSubSink requires a publisher; logg receives async publish failures.
func NewPubSubSink(publisher pubsub.Publisher, logg *logger.Logger) (*PubSubSink, error) {
	if publisher == nil {
		return nil, errors.New("publisher required")
	}
	return &PubSubSink{publisher: publisher, logg: logg, timeout: defaultPublishTimeout}, nil
}

// Write publishes entry as an Envelope and returns once the message is queued.
func (s *PubSubSink) Write(ctx context.Context, entry Entry) error {
	env := Envelope{
		Version:      envelopeVersion,
		EventID:      uuid.NewString(),
		OccurredAt:   entry.OccurredAt,
		ActorUserID:  entry.ActorUserID,
		Action:       entry.Action.String(),
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Metadata:     entry.Metadata,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":      env.EventID,
			"action":        env.Action,
			"resource_type": env.ResourceType,
		},
	}

	// The request context may be canceled once the response is written.
	pubCtx := context.WithoutCancel(ctx)
	result := s.publisher.Publish(pubCtx, msg)
	go s.await(pubCtx, env, result)
	return nil
}

func (s *PubSubSink) await(ctx context.Context, env Envelope, result pubsub.PublishResult) {
	if result == nil {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := result.Get(waitCtx); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":     env.EventID,
			"audit_action": env.Action,
		})
		s.logg.Error(logCtx, "publish audit entry", err)
	}
}
