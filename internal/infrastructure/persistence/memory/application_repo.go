package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

type applicationRepo struct {
	s *Store
}

func (r *applicationRepo) Create(ctx context.Context, app *entity.Application) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.apps {
			if existing.CandidateID == app.CandidateID && existing.JobID == app.JobID {
				return apperr.ErrDuplicateApplication
			}
		}
		app.ID = st.nextID("applications")
		st.apps[app.ID] = *app
		return nil
	})
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	var found *entity.Application
	err := r.s.read(ctx, func(st *state) error {
		if app, ok := st.apps[id]; ok {
			found = &app
		}
		return nil
	})
	return found, err
}

// GetForUpdate needs no extra locking: the transaction already holds the only slot
func (r *applicationRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Application, error) {
	if !inTx(ctx) {
		return nil, errors.New("memory: GetForUpdate called outside a transaction")
	}
	return r.GetByID(ctx, id)
}

func (r *applicationRepo) Save(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	return r.s.write(ctx, func(st *state) error {
		stored, ok := st.apps[app.ID]
		if !ok {
			return apperr.NotFound("application", app.ID)
		}
		if stored.Version != expectedVersion {
			return fmt.Errorf("application %d: %w", app.ID, apperr.ErrConcurrentModification)
		}
		stored.Stage = app.Stage
		stored.Version = app.Version
		stored.UpdatedAt = app.UpdatedAt
		st.apps[app.ID] = stored
		return nil
	})
}

func (r *applicationRepo) Exists(ctx context.Context, candidateID, jobID int64) (bool, error) {
	var exists bool
	err := r.s.read(ctx, func(st *state) error {
		for _, app := range st.apps {
			if app.CandidateID == candidateID && app.JobID == jobID {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *applicationRepo) ListByCandidate(ctx context.Context, candidateID int64) ([]*entity.Application, error) {
	return r.list(ctx, func(app entity.Application) bool { return app.CandidateID == candidateID })
}

func (r *applicationRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Application, error) {
	return r.list(ctx, func(app entity.Application) bool { return app.CompanyID == companyID })
}

func (r *applicationRepo) ListByJob(ctx context.Context, jobID int64) ([]*entity.Application, error) {
	return r.list(ctx, func(app entity.Application) bool { return app.JobID == jobID })
}

func (r *applicationRepo) list(ctx context.Context, match func(entity.Application) bool) ([]*entity.Application, error) {
	apps := []*entity.Application{}
	err := r.s.read(ctx, func(st *state) error {
		for _, app := range st.apps {
			if match(app) {
				app := app
				apps = append(apps, &app)
			}
		}
		return nil
	})
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps, err
}

var _ port.ApplicationRepository = (*applicationRepo)(nil)
