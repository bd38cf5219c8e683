package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

const applicationColumns = `id, candidate_id, job_id, company_id, stage, version, created_at, updated_at`

// ApplicationRepository implements port.ApplicationRepository
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application
func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO applications (
			candidate_id, job_id, company_id, stage, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.getExecutor(ctx).ExecContext(ctx, query,
		app.CandidateID,
		app.JobID,
		app.CompanyID,
		app.Stage,
		app.Version,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrDuplicateApplication
		}
		r.db.logger.Error("Failed to create application", zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	app.ID = id
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetForUpdate reads an application inside a write transaction.
// SQLite has no row locks; the immediate transaction already excludes other writers.
func (r *ApplicationRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Application, error) {
	if extractTx(ctx) == nil {
		return nil, errors.New("sqlite: GetForUpdate called outside a transaction")
	}
	return r.GetByID(ctx, id)
}

// Save updates stage and version if the stored version is still expectedVersion
func (r *ApplicationRepository) Save(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	query := `
		UPDATE applications
		SET stage = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.getExecutor(ctx).ExecContext(ctx, query,
		app.Stage,
		app.Version,
		app.UpdatedAt,
		app.ID,
		expectedVersion,
	)
	if err != nil {
		r.db.logger.Error("Failed to save application", zap.Int64("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to save application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("application %d at version %d: %w", app.ID, expectedVersion, apperr.ErrConcurrentModification)
	}
	return nil
}

// Exists reports whether the candidate already applied to the job
func (r *ApplicationRepository) Exists(ctx context.Context, candidateID, jobID int64) (bool, error) {
	var exists bool
	err := r.db.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE candidate_id = ? AND job_id = ?)`,
		candidateID, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// ListByCandidate lists a candidate's applications
func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE candidate_id = ? ORDER BY id`, candidateID)
}

// ListByCompany lists the applications to a company's jobs
func (r *ApplicationRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE company_id = ? ORDER BY id`, companyID)
}

// ListByJob lists the applications to a job
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID int64) ([]*entity.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE job_id = ? ORDER BY id`, jobID)
}

func (r *ApplicationRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.Application, error) {
	app, err := scanApplication(r.db.getExecutor(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.db.logger.Error("Failed to get application", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Application, error) {
	rows, err := r.db.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.db.logger.Error("Failed to list applications", zap.Error(err))
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*entity.Application, error) {
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

// Verify interface compliance
var _ port.ApplicationRepository = (*ApplicationRepository)(nil)
