package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

type fixture struct {
	apps      *mockAppRepo
	jobs      *mockJobRepo
	history   *mockHistoryRepo
	tx        *mockTxManager
	auth      *mockAuthorizer
	publisher *mockPublisher
	logger    *mockLogger
}

func newFixture() *fixture {
	return &fixture{
		apps:      &mockAppRepo{},
		jobs:      &mockJobRepo{},
		history:   &mockHistoryRepo{},
		tx:        &mockTxManager{},
		auth:      &mockAuthorizer{},
		publisher: &mockPublisher{},
		logger:    &mockLogger{},
	}
}

func (f *fixture) service() TransitionService {
	return NewTransitionService(f.apps, f.jobs, NewHistoryLedger(f.history), f.tx, f.auth, f.publisher, f.logger)
}

func companyPtr(id int64) *int64 { return &id }

var (
	testCandidate = entity.Actor{UserID: 1, Role: entity.RoleCandidate}
	testRecruiter = entity.Actor{UserID: 10, Role: entity.RoleRecruiter, CompanyID: companyPtr(100)}
)

func TestTransitionService_CreateApplication(t *testing.T) {
	f := newFixture()
	var target authz.Target
	f.auth.authorizeFunc = func(_ context.Context, _ entity.Actor, action authz.Action, tg authz.Target) authz.Decision {
		assert.Equal(t, authz.ActionCreateApplication, action)
		target = tg
		return authz.Allow()
	}

	app, err := f.service().CreateApplication(context.Background(), testCandidate, 1, 5)

	require.NoError(t, err)
	assert.Equal(t, authz.Target{CandidateID: 1}, target)
	assert.Equal(t, int64(1), app.ID)
	assert.Equal(t, workflow.StageApplied, app.Stage)
	assert.Equal(t, int64(1), app.Version)
	assert.Equal(t, int64(100), app.CompanyID)
	assert.Empty(t, f.history.appended, "creation is not a transition")

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeApplicationCreated, events[0].Type)
	assert.Equal(t, app.ID, events[0].ApplicationID)
	assert.Equal(t, int64(5), events[0].GetPayloadInt(event.KeyJobID))
}

func TestTransitionService_CreateApplicationFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name: "unauthorized",
			setup: func(f *fixture) {
				f.auth.authorizeFunc = func(context.Context, entity.Actor, authz.Action, authz.Target) authz.Decision {
					return authz.Deny(authz.ReasonRoleMismatch)
				}
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "job not found",
			setup: func(f *fixture) {
				f.jobs.getByIDFunc = func(context.Context, int64) (*entity.Job, error) { return nil, nil }
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "job closed",
			setup: func(f *fixture) {
				f.jobs.getByIDFunc = func(_ context.Context, id int64) (*entity.Job, error) {
					return &entity.Job{ID: id, CompanyID: 100, Status: entity.JobStatusClosed}, nil
				}
			},
			wantErr: apperr.ErrJobClosed,
		},
		{
			name: "duplicate found by lookup",
			setup: func(f *fixture) {
				f.apps.existsFunc = func(context.Context, int64, int64) (bool, error) { return true, nil }
			},
			wantErr: apperr.ErrDuplicateApplication,
		},
		{
			name: "duplicate found by unique constraint",
			setup: func(f *fixture) {
				f.apps.createFunc = func(context.Context, *entity.Application) error { return apperr.ErrDuplicateApplication }
			},
			wantErr: apperr.ErrDuplicateApplication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			app, err := f.service().CreateApplication(context.Background(), testCandidate, 1, 5)

			assert.Nil(t, app)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.publisher.published())
		})
	}
}

func TestTransitionService_CreateApplicationUnauthorizedSkipsTransaction(t *testing.T) {
	f := newFixture()
	f.auth.authorizeFunc = func(context.Context, entity.Actor, authz.Action, authz.Target) authz.Decision {
		return authz.Deny(authz.ReasonNotOwner)
	}

	_, err := f.service().CreateApplication(context.Background(), testCandidate, 2, 5)

	var ae *apperr.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "not_owner", ae.Reason)
	assert.Equal(t, 0, f.tx.calls)
}

func screeningApp() *entity.Application {
	return &entity.Application{ID: 7, CandidateID: 1, JobID: 5, CompanyID: 100, Stage: workflow.StageScreening, Version: 3}
}

func TestTransitionService_ChangeStage(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	var expected int64
	f.apps.saveFunc = func(_ context.Context, app *entity.Application, expectedVersion int64) error {
		expected = expectedVersion
		return nil
	}

	updated, err := f.service().ChangeStage(context.Background(), screeningApp(), testRecruiter, workflow.StageInterview)

	require.NoError(t, err)
	assert.Equal(t, workflow.StageInterview, updated.Stage)
	assert.Equal(t, int64(4), updated.Version)
	assert.Equal(t, int64(3), expected)

	require.Len(t, f.history.appended, 1)
	entry := f.history.appended[0]
	assert.Equal(t, workflow.StageScreening, entry.FromStage)
	assert.Equal(t, workflow.StageInterview, entry.ToStage)
	assert.Equal(t, testRecruiter.UserID, entry.ActorID)
	assert.False(t, entry.ChangedAt.IsZero())

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeStageChanged, events[0].Type)
	assert.Equal(t, "Screening", events[0].GetPayloadString(event.KeyFromStage))
	assert.Equal(t, "Interview", events[0].GetPayloadString(event.KeyToStage))
	assert.Equal(t, int64(10), events[0].GetPayloadInt(event.KeyActorID))
}

func TestTransitionService_ChangeStageFailures(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *entity.Application
		target   workflow.Stage
		setup    func(f *fixture)
		wantErr  error
	}{
		{
			name:     "not found",
			snapshot: &entity.Application{ID: 99},
			target:   workflow.StageInterview,
			setup:    func(f *fixture) {},
			wantErr:  apperr.ErrNotFound,
		},
		{
			name:     "unauthorized",
			snapshot: screeningApp(),
			target:   workflow.StageInterview,
			setup: func(f *fixture) {
				f.auth.authorizeFunc = func(context.Context, entity.Actor, authz.Action, authz.Target) authz.Decision {
					return authz.Deny(authz.ReasonCompanyMismatch)
				}
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name:     "stale snapshot",
			snapshot: &entity.Application{ID: 7, Version: 2},
			target:   workflow.StageInterview,
			setup:    func(f *fixture) {},
			wantErr:  apperr.ErrConcurrentModification,
		},
		{
			name:     "stale stage without version",
			snapshot: &entity.Application{ID: 7, Stage: workflow.StageApplied},
			target:   workflow.StageScreening,
			setup:    func(f *fixture) {},
			wantErr:  apperr.ErrConcurrentModification,
		},
		{
			name:     "skipping stages",
			snapshot: screeningApp(),
			target:   workflow.StageHired,
			setup:    func(f *fixture) {},
			wantErr:  apperr.ErrInvalidTransition,
		},
		{
			name:     "unknown target stage",
			snapshot: screeningApp(),
			target:   workflow.Stage("Archived"),
			setup:    func(f *fixture) {},
			wantErr:  apperr.ErrInvalidTransition,
		},
		{
			name:     "lost conditional update",
			snapshot: screeningApp(),
			target:   workflow.StageRejected,
			setup: func(f *fixture) {
				f.apps.saveFunc = func(context.Context, *entity.Application, int64) error {
					return apperr.ErrConcurrentModification
				}
			},
			wantErr: apperr.ErrConcurrentModification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.apps.getForUpdateFunc = func(_ context.Context, id int64) (*entity.Application, error) {
				if id != 7 {
					return nil, nil
				}
				return screeningApp(), nil
			}
			tt.setup(f)

			updated, err := f.service().ChangeStage(context.Background(), tt.snapshot, testRecruiter, tt.target)

			assert.Nil(t, updated)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.history.appended)
			assert.Empty(t, f.publisher.published())
		})
	}
}

func TestTransitionService_UnauthorizedWinsOverStaleSnapshot(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	f.auth.authorizeFunc = func(context.Context, entity.Actor, authz.Action, authz.Target) authz.Decision {
		return authz.Deny(authz.ReasonRoleMismatch)
	}

	_, err := f.service().ChangeStage(context.Background(), &entity.Application{ID: 7, Version: 1}, testCandidate, workflow.StageInterview)

	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTransitionService_InvalidTransitionCarriesStages(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }

	_, err := f.service().ChangeStageByID(context.Background(), 7, Expectation{}, testRecruiter, workflow.StageOffer)

	var te *apperr.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, workflow.StageScreening, te.From)
	assert.Equal(t, workflow.StageOffer, te.To)
	assert.Empty(t, f.apps.saved)
}

func TestTransitionService_ChangeStageByIDComparesExpectedStage(t *testing.T) {
	tests := []struct {
		name     string
		expected Expectation
		wantErr  error
	}{
		{name: "matching stage", expected: Expectation{Stage: workflow.StageScreening}},
		{name: "matching version and stage", expected: Expectation{Version: 3, Stage: workflow.StageScreening}},
		{name: "stale stage", expected: Expectation{Stage: workflow.StageApplied}, wantErr: apperr.ErrConcurrentModification},
		{name: "stale version", expected: Expectation{Version: 2, Stage: workflow.StageScreening}, wantErr: apperr.ErrConcurrentModification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }

			updated, err := f.service().ChangeStageByID(context.Background(), 7, tt.expected, testRecruiter, workflow.StageInterview)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.apps.saved)
				assert.Empty(t, f.history.appended)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, workflow.StageInterview, updated.Stage)
		})
	}
}

func TestTransitionService_LedgerFailureAbortsTransaction(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	f.history.appendFunc = func(context.Context, *entity.HistoryEntry) error { return errors.New("disk full") }

	_, err := f.service().ChangeStage(context.Background(), screeningApp(), testRecruiter, workflow.StageInterview)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.Code(err))
	assert.Empty(t, f.publisher.published())
	assert.Contains(t, f.logger.errors, "Failed to change stage")
}

func TestTransitionService_CancelledBeforeCommit(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	f.history.appendFunc = func(context.Context, *entity.HistoryEntry) error {
		cancel()
		return nil
	}

	_, err := f.service().ChangeStage(ctx, screeningApp(), testRecruiter, workflow.StageInterview)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.publisher.published())
}

func TestTransitionService_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	f.publisher.publishFunc = func(context.Context, *event.Event) error { return errors.New("broker down") }

	updated, err := f.service().ChangeStage(context.Background(), screeningApp(), testRecruiter, workflow.StageRejected)

	require.NoError(t, err)
	assert.Equal(t, workflow.StageRejected, updated.Stage)
	assert.Len(t, f.history.appended, 1)
	assert.Equal(t, []string{"Failed to publish event"}, f.logger.errors)
}

func TestTransitionService_NilPublisher(t *testing.T) {
	f := newFixture()
	f.apps.getForUpdateFunc = func(context.Context, int64) (*entity.Application, error) { return screeningApp(), nil }
	svc := NewTransitionService(f.apps, f.jobs, NewHistoryLedger(f.history), f.tx, f.auth, nil, f.logger)

	_, err := svc.ChangeStage(context.Background(), screeningApp(), testRecruiter, workflow.StageInterview)

	assert.NoError(t, err)
}

func TestTransitionService_NilSnapshot(t *testing.T) {
	f := newFixture()

	_, err := f.service().ChangeStage(context.Background(), nil, testRecruiter, workflow.StageInterview)

	assert.Error(t, err)
	assert.Equal(t, 0, f.tx.calls)
}
