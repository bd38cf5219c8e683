package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

func newQueryService(apps *mockAppRepo, jobs *mockJobRepo, history *mockHistoryRepo) ApplicationQueryService {
	gate := authz.NewGate(nil, &mockLogger{})
	return NewApplicationQueryService(apps, jobs, NewHistoryLedger(history), gate, &mockLogger{})
}

func TestQueryService_ListForActor(t *testing.T) {
	apps := &mockAppRepo{
		listByCandidateFunc: func(_ context.Context, candidateID int64) ([]*entity.Application, error) {
			return []*entity.Application{{ID: 1, CandidateID: candidateID}}, nil
		},
		listByCompanyFunc: func(_ context.Context, companyID int64) ([]*entity.Application, error) {
			return []*entity.Application{{ID: 2, CompanyID: companyID}, {ID: 3, CompanyID: companyID}}, nil
		},
	}
	svc := newQueryService(apps, &mockJobRepo{}, &mockHistoryRepo{})

	mine, err := svc.ListForActor(context.Background(), testCandidate)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, testCandidate.UserID, mine[0].CandidateID)

	company, err := svc.ListForActor(context.Background(), testRecruiter)
	require.NoError(t, err)
	assert.Len(t, company, 2)

	_, err = svc.ListForActor(context.Background(), entity.Actor{UserID: 9, Role: entity.RoleRecruiter})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestQueryService_ListForJob(t *testing.T) {
	apps := &mockAppRepo{}
	jobs := &mockJobRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Job, error) {
			if id == 404 {
				return nil, nil
			}
			return &entity.Job{ID: id, CompanyID: 100}, nil
		},
	}
	svc := newQueryService(apps, jobs, &mockHistoryRepo{})

	list, err := svc.ListForJob(context.Background(), testRecruiter, 5)
	require.NoError(t, err)
	assert.NotNil(t, list)

	_, err = svc.ListForJob(context.Background(), testRecruiter, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ListForJob(context.Background(), testCandidate, 5)
	var ae *apperr.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(authz.ReasonRoleMismatch), ae.Reason)

	other := entity.Actor{UserID: 20, Role: entity.RoleRecruiter, CompanyID: companyPtr(200)}
	_, err = svc.ListForJob(context.Background(), other, 5)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(authz.ReasonCompanyMismatch), ae.Reason)
}

func TestQueryService_GetAndHistory(t *testing.T) {
	apps := &mockAppRepo{
		getByIDFunc: func(_ context.Context, id int64) (*entity.Application, error) {
			if id != 7 {
				return nil, nil
			}
			return screeningApp(), nil
		},
	}
	history := &mockHistoryRepo{
		listFunc: func(_ context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
			return []*entity.HistoryEntry{{ID: 1, ApplicationID: applicationID}}, nil
		},
	}
	svc := newQueryService(apps, &mockJobRepo{}, history)
	stranger := entity.Actor{UserID: 2, Role: entity.RoleCandidate}

	app, err := svc.Get(context.Background(), testCandidate, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), app.ID)

	_, err = svc.Get(context.Background(), stranger, 7)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Get(context.Background(), testCandidate, 8)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	entries, err := svc.ListHistory(context.Background(), testRecruiter, 7)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.ListHistory(context.Background(), stranger, 7)
	var ae *apperr.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(authz.ReasonNotOwner), ae.Reason)
}
