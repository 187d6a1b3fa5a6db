package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamAdder is the subset of the redis client used by StreamPublisher.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher appends events to a Redis stream, one JSON document per
// entry under the "event" field.
type StreamPublisher struct {
	client streamAdder
	stream string
	now    func() time.Time
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return newStreamPublisher(client, stream)
}

func newStreamPublisher(client streamAdder, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, now: time.Now}
}

func (p *StreamPublisher) Publish(ctx context.Context, eventType string, data any) error {
	event := Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
