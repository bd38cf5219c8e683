package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
)

// MailQueue implements port.Mailer by pushing messages onto a Redis list
// drained by the email worker.
type MailQueue struct {
	client Client
	key    string
	logger *zap.Logger
}

// NewMailQueue creates a mail queue; an empty key selects DefaultMailQueue
func NewMailQueue(client Client, key string, logger *zap.Logger) *MailQueue {
	if key == "" {
		key = DefaultMailQueue
	}
	return &MailQueue{
		client: client,
		key:    key,
		logger: logger,
	}
}

// Send enqueues the message
func (q *MailQueue) Send(ctx context.Context, msg port.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	depth, err := q.client.LPush(ctx, q.key, data).Result()
	if err != nil {
		q.logger.Error("Failed to enqueue mail",
			zap.String("queue", q.key),
			zap.String("event_id", msg.EventID),
			zap.Error(err))
		return fmt.Errorf("failed to enqueue mail for %s: %w", msg.To, err)
	}

	q.logger.Info("Mail enqueued",
		zap.String("queue", q.key),
		zap.String("to", msg.To),
		zap.String("event_id", msg.EventID),
		zap.Int64("depth", depth))
	return nil
}

var _ port.Mailer = (*MailQueue)(nil)
