package port

import (
	"context"

	"github.com/garyjia/ats-pipeline/internal/domain/event"
)

// EventPublisher hands committed domain events to the notification side.
// Delivery is fire-and-forget; consumers assume at-least-once.
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// Audience identifies who a notification message is written for
type Audience string

const (
	AudienceCandidate Audience = "candidate"
	AudienceRecruiter Audience = "recruiter"
)

// Message is one outgoing notification email
type Message struct {
	To            string   `json:"to"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Audience      Audience `json:"audience"`
	EventID       string   `json:"event_id"`
	ApplicationID int64    `json:"application_id"`
}

// Mailer delivers notification messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
