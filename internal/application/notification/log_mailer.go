package notification

import (
	"context"

	"github.com/garyjia/ats-pipeline/internal/application/port"
)

// LogMailer writes messages to the log instead of delivering them.
// Used when no mail queue is configured.
type LogMailer struct {
	logger Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message
func (m *LogMailer) Send(_ context.Context, msg port.Message) error {
	m.logger.Info("Notification email",
		"to", msg.To,
		"audience", msg.Audience,
		"subject", msg.Subject,
		"application_id", msg.ApplicationID,
		"event_id", msg.EventID,
	)
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
