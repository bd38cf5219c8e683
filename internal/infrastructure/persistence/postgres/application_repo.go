package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

const applicationColumns = `id, candidate_id, job_id, company_id, stage, version, created_at, updated_at`

// ApplicationRepository implements port.ApplicationRepository
type ApplicationRepository struct {
	store *Store
}

// Create inserts a new application
func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	err := r.store.getExecutor(ctx).QueryRow(ctx, `
		INSERT INTO applications (candidate_id, job_id, company_id, stage, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		app.CandidateID,
		app.JobID,
		app.CompanyID,
		app.Stage,
		app.Version,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.ErrDuplicateApplication
		}
		r.store.logger.Error("Failed to create application", zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
}

// GetForUpdate reads an application and locks its row until the transaction ends
func (r *ApplicationRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Application, error) {
	if extractTx(ctx) == nil {
		return nil, errors.New("postgres: GetForUpdate called outside a transaction")
	}
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
}

// Save updates stage and version if the stored version is still expectedVersion
func (r *ApplicationRepository) Save(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	tag, err := r.store.getExecutor(ctx).Exec(ctx, `
		UPDATE applications
		SET stage = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`,
		app.Stage,
		app.Version,
		app.UpdatedAt,
		app.ID,
		expectedVersion,
	)
	if err != nil {
		r.store.logger.Error("Failed to save application", zap.Int64("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to save application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application %d at version %d: %w", app.ID, expectedVersion, apperr.ErrConcurrentModification)
	}
	return nil
}

// Exists reports whether the candidate already applied to the job
func (r *ApplicationRepository) Exists(ctx context.Context, candidateID, jobID int64) (bool, error) {
	var exists bool
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE candidate_id = $1 AND job_id = $2)`,
		candidateID, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// ListByCandidate lists a candidate's applications
func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE candidate_id = $1 ORDER BY id`, candidateID)
}

// ListByCompany lists the applications to a company's jobs
func (r *ApplicationRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE company_id = $1 ORDER BY id`, companyID)
}

// ListByJob lists the applications to a job
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 ORDER BY id`, jobID)
}

func (r *ApplicationRepository) getOne(ctx context.Context, query string, id int64) (*entity.Application, error) {
	app, err := scanApplication(r.store.getExecutor(ctx).QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.store.logger.Error("Failed to get application", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, id int64) ([]*entity.Application, error) {
	rows, err := r.store.getExecutor(ctx).Query(ctx, query, id)
	if err != nil {
		r.store.logger.Error("Failed to list applications", zap.Error(err))
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []*entity.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(row pgx.Row) (*entity.Application, error) {
	var app entity.Application
	err := row.Scan(
		&app.ID,
		&app.CandidateID,
		&app.JobID,
		&app.CompanyID,
		&app.Stage,
		&app.Version,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

var _ port.ApplicationRepository = (*ApplicationRepository)(nil)
