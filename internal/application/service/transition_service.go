package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Authorizer decides whether an actor may perform an action
type Authorizer interface {
	Authorize(ctx context.Context, actor entity.Actor, action authz.Action, target authz.Target) authz.Decision
}

// TransitionService creates applications and moves them through the pipeline
type TransitionService interface {
	CreateApplication(ctx context.Context, actor entity.Actor, candidateID, jobID int64) (*entity.Application, error)

	// ChangeStage moves the application to target. The snapshot's version and
	// stage, when set, must still match the stored application.
	ChangeStage(ctx context.Context, snapshot *entity.Application, actor entity.Actor, target workflow.Stage) (*entity.Application, error)

	// ChangeStageByID is ChangeStage for callers holding only an id
	ChangeStageByID(ctx context.Context, id int64, expected Expectation, actor entity.Actor, target workflow.Stage) (*entity.Application, error)
}

// Expectation is what a caller last read of an application.
// Zero fields are not compared.
type Expectation struct {
	Version int64
	Stage   workflow.Stage
}

func (e Expectation) check(current *entity.Application) error {
	if e.Version != 0 && current.Version != e.Version {
		return fmt.Errorf("application %d is at version %d, caller had %d: %w",
			current.ID, current.Version, e.Version, apperr.ErrConcurrentModification)
	}
	if e.Stage != "" && current.Stage != e.Stage {
		return fmt.Errorf("application %d is at stage %s, caller had %s: %w",
			current.ID, current.Stage, e.Stage, apperr.ErrConcurrentModification)
	}
	return nil
}

type transitionServiceImpl struct {
	appRepo    port.ApplicationRepository
	jobRepo    port.JobRepository
	ledger     HistoryLedger
	txManager  port.TransactionManager
	authorizer Authorizer
	publisher  port.EventPublisher
	table      *workflow.Table
	logger     Logger
}

// NewTransitionService creates a new TransitionService.
// publisher may be nil, in which case no events are emitted.
func NewTransitionService(
	appRepo port.ApplicationRepository,
	jobRepo port.JobRepository,
	ledger HistoryLedger,
	txManager port.TransactionManager,
	authorizer Authorizer,
	publisher port.EventPublisher,
	logger Logger,
) TransitionService {
	return &transitionServiceImpl{
		appRepo:    appRepo,
		jobRepo:    jobRepo,
		ledger:     ledger,
		txManager:  txManager,
		authorizer: authorizer,
		publisher:  publisher,
		table:      workflow.DefaultTable(),
		logger:     logger,
	}
}

// CreateApplication inserts a new application at Applied.
// Creation is not a transition, so no history entry is written.
func (s *transitionServiceImpl) CreateApplication(ctx context.Context, actor entity.Actor, candidateID, jobID int64) (*entity.Application, error) {
	decision := s.authorizer.Authorize(ctx, actor, authz.ActionCreateApplication, authz.Target{CandidateID: candidateID})
	if err := decision.Err(authz.ActionCreateApplication); err != nil {
		return nil, err
	}

	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		job, err := s.jobRepo.GetByID(txCtx, jobID)
		if err != nil {
			return fmt.Errorf("load job: %w", err)
		}
		if job == nil {
			return apperr.NotFound("job", jobID)
		}
		if !job.IsOpen() {
			return fmt.Errorf("job %d: %w", jobID, apperr.ErrJobClosed)
		}

		exists, err := s.appRepo.Exists(txCtx, candidateID, jobID)
		if err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if exists {
			return fmt.Errorf("candidate %d, job %d: %w", candidateID, jobID, apperr.ErrDuplicateApplication)
		}

		now := time.Now().UTC()
		app = &entity.Application{
			CandidateID: candidateID,
			JobID:       jobID,
			CompanyID:   job.CompanyID,
			Stage:       workflow.StageApplied,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.appRepo.Create(txCtx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}

		return txCtx.Err()
	})
	if err != nil {
		s.logFailure("Failed to create application", err, "candidate_id", candidateID, "job_id", jobID)
		return nil, err
	}

	s.logger.Info("Application created", "id", app.ID, "candidate_id", candidateID, "job_id", jobID)
	s.publish(ctx, event.NewEvent(event.TypeApplicationCreated, app.ID, map[string]interface{}{
		event.KeyCandidateID: app.CandidateID,
		event.KeyJobID:       app.JobID,
		event.KeyCompanyID:   app.CompanyID,
	}))

	return app, nil
}

// ChangeStage performs one validated, audited stage transition
func (s *transitionServiceImpl) ChangeStage(ctx context.Context, snapshot *entity.Application, actor entity.Actor, target workflow.Stage) (*entity.Application, error) {
	if snapshot == nil {
		return nil, errors.New("change stage: nil application")
	}
	return s.changeStage(ctx, snapshot.ID, Expectation{Version: snapshot.Version, Stage: snapshot.Stage}, actor, target)
}

// ChangeStageByID performs a transition on the application with the given id
func (s *transitionServiceImpl) ChangeStageByID(ctx context.Context, id int64, expected Expectation, actor entity.Actor, target workflow.Stage) (*entity.Application, error) {
	return s.changeStage(ctx, id, expected, actor, target)
}

func (s *transitionServiceImpl) changeStage(ctx context.Context, id int64, expected Expectation, actor entity.Actor, target workflow.Stage) (*entity.Application, error) {
	var updated *entity.Application
	var from workflow.Stage

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.appRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return fmt.Errorf("load application: %w", err)
		}
		if current == nil {
			return apperr.NotFound("application", id)
		}

		decision := s.authorizer.Authorize(txCtx, actor, authz.ActionChangeStage, authz.TargetOf(current))
		if err := decision.Err(authz.ActionChangeStage); err != nil {
			return err
		}

		if err := expected.check(current); err != nil {
			return err
		}

		if !s.table.IsLegal(current.Stage, target) {
			return &apperr.TransitionError{From: current.Stage, To: target}
		}

		now := time.Now().UTC()
		next := current.Clone()
		next.Stage = target
		next.Version = current.Version + 1
		next.UpdatedAt = now

		if err := s.appRepo.Save(txCtx, next, current.Version); err != nil {
			return fmt.Errorf("save application: %w", err)
		}

		entry := &entity.HistoryEntry{
			ApplicationID: id,
			FromStage:     current.Stage,
			ToStage:       target,
			ActorID:       actor.UserID,
			ChangedAt:     now,
		}
		if err := s.ledger.Append(txCtx, entry); err != nil {
			return err
		}

		// A caller that gave up before commit must not see a committed change
		if err := txCtx.Err(); err != nil {
			return err
		}

		updated = next
		from = current.Stage
		return nil
	})
	if err != nil {
		s.logFailure("Failed to change stage", err, "application_id", id, "actor_id", actor.UserID, "target", target)
		return nil, err
	}

	s.logger.Info("Stage changed",
		"application_id", id,
		"from", from,
		"to", target,
		"actor_id", actor.UserID,
		"version", updated.Version,
	)
	s.publish(ctx, event.NewEvent(event.TypeStageChanged, id, map[string]interface{}{
		event.KeyCandidateID: updated.CandidateID,
		event.KeyJobID:       updated.JobID,
		event.KeyCompanyID:   updated.CompanyID,
		event.KeyActorID:     actor.UserID,
		event.KeyFromStage:   string(from),
		event.KeyToStage:     string(target),
		event.KeyVersion:     updated.Version,
	}))

	return updated, nil
}

// publish hands a committed event to the publisher. Failures are logged only:
// the transition is already committed.
func (s *transitionServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.logger.Error("Failed to publish event",
			"error", err,
			"event_id", evt.ID,
			"type", evt.Type,
			"application_id", evt.ApplicationID,
		)
	}
}

// logFailure logs expected domain failures at info and everything else at error
func (s *transitionServiceImpl) logFailure(msg string, err error, keysAndValues ...interface{}) {
	code := apperr.Code(err)
	kv := append([]interface{}{"error", err, "code", code}, keysAndValues...)
	if code == apperr.CodeInternal {
		s.logger.Error(msg, kv...)
		return
	}
	s.logger.Info(msg, kv...)
}
