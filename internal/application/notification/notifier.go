// Package notification turns application events into candidate and recruiter emails.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
	"github.com/garyjia/ats-pipeline/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Notifier resolves recipients for application events and hands messages to a Mailer
type Notifier struct {
	users  port.UserRepository
	jobs   port.JobRepository
	mailer port.Mailer
	logger Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(users port.UserRepository, jobs port.JobRepository, mailer port.Mailer, logger Logger) *Notifier {
	return &Notifier{
		users:  users,
		jobs:   jobs,
		mailer: mailer,
		logger: logger,
	}
}

// Handle is a dispatcher handler for application events
func (n *Notifier) Handle(ctx context.Context, evt *event.Event) error {
	messages, err := n.Compose(ctx, evt)
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range messages {
		if err := n.mailer.Send(ctx, msg); err != nil {
			n.logger.Error("Failed to send notification", "error", err, "to", msg.To, "event_id", evt.ID)
			errs = append(errs, fmt.Errorf("send to %s: %w", msg.To, err))
		}
	}
	return errors.Join(errs...)
}

// Compose builds the messages for an event without sending them
func (n *Notifier) Compose(ctx context.Context, evt *event.Event) ([]port.Message, error) {
	switch evt.Type {
	case event.TypeApplicationCreated:
		return n.composeCreated(ctx, evt)
	case event.TypeStageChanged:
		return n.composeStageChanged(ctx, evt)
	default:
		return nil, nil
	}
}

func (n *Notifier) composeCreated(ctx context.Context, evt *event.Event) ([]port.Message, error) {
	candidate, job, err := n.load(ctx, evt)
	if err != nil {
		return nil, err
	}

	var messages []port.Message
	messages = n.appendTo(messages, candidate, port.AudienceCandidate, evt,
		fmt.Sprintf("Application received: %s", job.Title),
		fmt.Sprintf("Hi %s,\n\nThanks for applying for %s. Your application is now in stage Applied.\n",
			candidate.Username, job.Title),
	)

	recruiters, err := n.users.ListByCompanyAndRole(ctx, job.CompanyID, entity.RoleRecruiter)
	if err != nil {
		return nil, fmt.Errorf("list recruiters: %w", err)
	}
	for _, rec := range recruiters {
		messages = n.appendTo(messages, rec, port.AudienceRecruiter, evt,
			fmt.Sprintf("New application for %s", job.Title),
			fmt.Sprintf("Hi %s,\n\n%s applied for %s (application #%d).\n",
				rec.Username, candidate.Username, job.Title, evt.ApplicationID),
		)
	}
	return messages, nil
}

func (n *Notifier) composeStageChanged(ctx context.Context, evt *event.Event) ([]port.Message, error) {
	candidate, job, err := n.load(ctx, evt)
	if err != nil {
		return nil, err
	}
	from := evt.GetPayloadString(event.KeyFromStage)
	to := evt.GetPayloadString(event.KeyToStage)

	var messages []port.Message
	messages = n.appendTo(messages, candidate, port.AudienceCandidate, evt,
		fmt.Sprintf("Your application for %s is now %s", job.Title, to),
		fmt.Sprintf("Hi %s,\n\nYour application for %s moved from %s to %s.\n",
			candidate.Username, job.Title, from, to),
	)

	actorID := evt.GetPayloadInt(event.KeyActorID)
	actor, err := n.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("load actor %d: %w", actorID, err)
	}
	if actor != nil {
		messages = n.appendTo(messages, actor, port.AudienceRecruiter, evt,
			fmt.Sprintf("Application #%d moved to %s", evt.ApplicationID, to),
			fmt.Sprintf("Hi %s,\n\nYou moved %s's application for %s from %s to %s.\n",
				actor.Username, candidate.Username, job.Title, from, to),
		)
	}
	return messages, nil
}

// load fetches the candidate and job named in the event payload
func (n *Notifier) load(ctx context.Context, evt *event.Event) (*entity.User, *entity.Job, error) {
	candidateID := evt.GetPayloadInt(event.KeyCandidateID)
	candidate, err := n.users.GetByID(ctx, candidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("load candidate %d: %w", candidateID, err)
	}
	if candidate == nil {
		return nil, nil, fmt.Errorf("candidate %d not found", candidateID)
	}

	jobID := evt.GetPayloadInt(event.KeyJobID)
	job, err := n.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("load job %d: %w", jobID, err)
	}
	if job == nil {
		return nil, nil, fmt.Errorf("job %d not found", jobID)
	}
	return candidate, job, nil
}

// appendTo adds a message for user unless they have no usable email address
func (n *Notifier) appendTo(messages []port.Message, user *entity.User, audience port.Audience, evt *event.Event, subject, body string) []port.Message {
	if user.Email == "" {
		n.logger.Info("Skipping notification, no email address", "user_id", user.ID, "event_id", evt.ID)
		return messages
	}
	if err := utils.ValidateEmail(user.Email); err != nil {
		n.logger.Info("Skipping notification, invalid email address", "user_id", user.ID, "event_id", evt.ID)
		return messages
	}
	return append(messages, port.Message{
		To:            user.Email,
		Subject:       utils.SanitizeHeader(subject),
		Body:          body,
		Audience:      audience,
		EventID:       evt.ID,
		ApplicationID: evt.ApplicationID,
	})
}
