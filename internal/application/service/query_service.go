package service

import (
	"context"
	"fmt"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// ApplicationQueryService serves scoped reads of applications and their history
type ApplicationQueryService interface {
	// ListForActor returns the candidate's own applications, or the
	// applications of a staff member's company
	ListForActor(ctx context.Context, actor entity.Actor) ([]*entity.Application, error)
	ListForJob(ctx context.Context, actor entity.Actor, jobID int64) ([]*entity.Application, error)
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Application, error)
	ListHistory(ctx context.Context, actor entity.Actor, applicationID int64) ([]*entity.HistoryEntry, error)
}

type applicationQueryServiceImpl struct {
	appRepo    port.ApplicationRepository
	jobRepo    port.JobRepository
	ledger     HistoryLedger
	authorizer Authorizer
	logger     Logger
}

// NewApplicationQueryService creates a new ApplicationQueryService
func NewApplicationQueryService(
	appRepo port.ApplicationRepository,
	jobRepo port.JobRepository,
	ledger HistoryLedger,
	authorizer Authorizer,
	logger Logger,
) ApplicationQueryService {
	return &applicationQueryServiceImpl{
		appRepo:    appRepo,
		jobRepo:    jobRepo,
		ledger:     ledger,
		authorizer: authorizer,
		logger:     logger,
	}
}

// ListForActor lists applications in the actor's scope
func (s *applicationQueryServiceImpl) ListForActor(ctx context.Context, actor entity.Actor) ([]*entity.Application, error) {
	var target authz.Target
	switch {
	case actor.Role == entity.RoleCandidate:
		target.CandidateID = actor.UserID
	case actor.CompanyID != nil:
		target.CompanyID = *actor.CompanyID
	}
	if err := s.authorize(ctx, actor, authz.ActionListApplications, target); err != nil {
		return nil, err
	}

	var apps []*entity.Application
	var err error
	if target.CandidateID != 0 {
		apps, err = s.appRepo.ListByCandidate(ctx, target.CandidateID)
	} else {
		apps, err = s.appRepo.ListByCompany(ctx, target.CompanyID)
	}
	if err != nil {
		s.logger.Error("Failed to list applications", "error", err, "actor_id", actor.UserID)
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return nonNil(apps), nil
}

// ListForJob lists the applications to one job for staff of the job's company
func (s *applicationQueryServiceImpl) ListForJob(ctx context.Context, actor entity.Actor, jobID int64) ([]*entity.Application, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		s.logger.Error("Failed to get job", "error", err, "job_id", jobID)
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", jobID)
	}

	if err := s.authorize(ctx, actor, authz.ActionListApplications, authz.Target{CompanyID: job.CompanyID}); err != nil {
		return nil, err
	}

	apps, err := s.appRepo.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("Failed to list job applications", "error", err, "job_id", jobID)
		return nil, fmt.Errorf("list job applications: %w", err)
	}
	return nonNil(apps), nil
}

// Get returns one application if it is in the actor's scope
func (s *applicationQueryServiceImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, authz.ActionListApplications, authz.TargetOf(app)); err != nil {
		return nil, err
	}
	return app, nil
}

// ListHistory returns the audit trail of one application
func (s *applicationQueryServiceImpl) ListHistory(ctx context.Context, actor entity.Actor, applicationID int64) ([]*entity.HistoryEntry, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, authz.ActionListHistory, authz.TargetOf(app)); err != nil {
		return nil, err
	}

	entries, err := s.ledger.ListByApplication(ctx, applicationID)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err, "application_id", applicationID)
		return nil, err
	}
	return entries, nil
}

func (s *applicationQueryServiceImpl) load(ctx context.Context, id int64) (*entity.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get application", "error", err, "id", id)
		return nil, fmt.Errorf("load application: %w", err)
	}
	if app == nil {
		return nil, apperr.NotFound("application", id)
	}
	return app, nil
}

func (s *applicationQueryServiceImpl) authorize(ctx context.Context, actor entity.Actor, action authz.Action, target authz.Target) error {
	return s.authorizer.Authorize(ctx, actor, action, target).Err(action)
}

func nonNil(apps []*entity.Application) []*entity.Application {
	if apps == nil {
		return []*entity.Application{}
	}
	return apps
}
