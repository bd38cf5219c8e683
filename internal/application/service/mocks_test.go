package service

import (
	"context"
	"sync"

	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
)

// Mock repositories
type mockAppRepo struct {
	createFunc          func(ctx context.Context, app *entity.Application) error
	getByIDFunc         func(ctx context.Context, id int64) (*entity.Application, error)
	getForUpdateFunc    func(ctx context.Context, id int64) (*entity.Application, error)
	saveFunc            func(ctx context.Context, app *entity.Application, expectedVersion int64) error
	existsFunc          func(ctx context.Context, candidateID, jobID int64) (bool, error)
	listByCandidateFunc func(ctx context.Context, candidateID int64) ([]*entity.Application, error)
	listByCompanyFunc   func(ctx context.Context, companyID int64) ([]*entity.Application, error)
	listByJobFunc       func(ctx context.Context, jobID int64) ([]*entity.Application, error)

	saved []*entity.Application
}

func (m *mockAppRepo) Create(ctx context.Context, app *entity.Application) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, app)
	}
	app.ID = 1
	return nil
}

func (m *mockAppRepo) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAppRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Application, error) {
	if m.getForUpdateFunc != nil {
		return m.getForUpdateFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAppRepo) Save(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, app, expectedVersion)
	}
	m.saved = append(m.saved, app)
	return nil
}

func (m *mockAppRepo) Exists(ctx context.Context, candidateID, jobID int64) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, candidateID, jobID)
	}
	return false, nil
}

func (m *mockAppRepo) ListByCandidate(ctx context.Context, candidateID int64) ([]*entity.Application, error) {
	if m.listByCandidateFunc != nil {
		return m.listByCandidateFunc(ctx, candidateID)
	}
	return nil, nil
}

func (m *mockAppRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Application, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockAppRepo) ListByJob(ctx context.Context, jobID int64) ([]*entity.Application, error) {
	if m.listByJobFunc != nil {
		return m.listByJobFunc(ctx, jobID)
	}
	return nil, nil
}

type mockJobRepo struct {
	getByIDFunc func(ctx context.Context, id int64) (*entity.Job, error)
}

func (m *mockJobRepo) GetByID(ctx context.Context, id int64) (*entity.Job, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Job{ID: id, CompanyID: 100, Status: entity.JobStatusOpen}, nil
}

type mockHistoryRepo struct {
	appendFunc func(ctx context.Context, entry *entity.HistoryEntry) error
	listFunc   func(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error)

	appended []*entity.HistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.appended = append(m.appended, entry)
	return nil
}

func (m *mockHistoryRepo) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, applicationID)
	}
	return nil, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls               int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockAuthorizer struct {
	authorizeFunc func(ctx context.Context, actor entity.Actor, action authz.Action, target authz.Target) authz.Decision
}

func (m *mockAuthorizer) Authorize(ctx context.Context, actor entity.Actor, action authz.Action, target authz.Target) authz.Decision {
	if m.authorizeFunc != nil {
		return m.authorizeFunc(ctx, actor, action, target)
	}
	return authz.Allow()
}

type mockPublisher struct {
	mu          sync.Mutex
	publishFunc func(ctx context.Context, evt *event.Event) error
	events      []*event.Event
}

func (m *mockPublisher) Publish(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	m.events = append(m.events, evt)
	m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evt)
	}
	return nil
}

func (m *mockPublisher) published() []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*event.Event(nil), m.events...)
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	m.errors = append(m.errors, msg)
	m.mu.Unlock()
}
