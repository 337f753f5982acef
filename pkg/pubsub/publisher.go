package pubsub

import (
	"context"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// PublishResult resolves to the server-assigned message id.
type PublishResult interface {
	Get(context.Context) (string, error)
}

// Publisher is the narrow publish surface used by audit fan-out.
type Publisher interface {
	Publish(context.Context, *pubsub.Message) PublishResult
}

// NewPublisher adapts a Pub/Sub v2 publisher to Publisher. It returns nil for a nil handle.
func NewPublisher(p *pubsub.Publisher) Publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{publisher: p}
}

type gcpPublisher struct {
	publisher *pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) PublishResult {
	return p.publisher.Publish(ctx, msg)
}
