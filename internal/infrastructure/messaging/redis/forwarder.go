package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/domain/event"
)

// EventForwarder publishes domain events as JSON on <prefix><event type>
type EventForwarder struct {
	client Client
	prefix string
	logger *zap.Logger
}

// NewEventForwarder creates a forwarder; an empty prefix selects DefaultEventChannelPrefix
func NewEventForwarder(client Client, prefix string, logger *zap.Logger) *EventForwarder {
	if prefix == "" {
		prefix = DefaultEventChannelPrefix
	}
	return &EventForwarder{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Channel returns the channel an event type is published on
func (f *EventForwarder) Channel(eventType event.Type) string {
	return f.prefix + eventType.String()
}

// Handle publishes the event. It is registered as a dispatcher handler.
func (f *EventForwarder) Handle(ctx context.Context, evt *event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := f.Channel(evt.Type)
	receivers, err := f.client.Publish(ctx, channel, data).Result()
	if err != nil {
		f.logger.Error("Failed to forward event",
			zap.String("channel", channel),
			zap.String("event_id", evt.ID),
			zap.Error(err))
		return fmt.Errorf("failed to publish event %s: %w", evt.ID, err)
	}

	f.logger.Debug("Event forwarded",
		zap.String("channel", channel),
		zap.String("event_id", evt.ID),
		zap.Int64("receivers", receivers))
	return nil
}
