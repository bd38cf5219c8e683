package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// JobRepository implements port.JobRepository and seeds companies and jobs
type JobRepository struct {
	store *Store
}

// CreateCompany inserts a company
func (r *JobRepository) CreateCompany(ctx context.Context, company *entity.Company) error {
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO companies (name) VALUES ($1) RETURNING id`, company.Name,
	).Scan(&company.ID)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// Create inserts a job
func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	if job.Status == "" {
		job.Status = entity.JobStatusOpen
	}
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO jobs (company_id, title, description, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		job.CompanyID, job.Title, job.Description, job.Status,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// SetStatus opens or closes a job
func (r *JobRepository) SetStatus(ctx context.Context, id int64, status entity.JobStatus) error {
	if _, err := r.store.getExecutor(ctx).Exec(ctx, `UPDATE jobs SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*entity.Job, error) {
	var job entity.Job
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`SELECT id, company_id, title, description, status, created_at FROM jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Status, &job.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.store.logger.Error("Failed to get job by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	store *Store
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO users (username, email, role, company_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		user.Username, user.Email, string(user.Role), user.CompanyID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user, err := scanUser(r.store.getExecutor(ctx).QueryRow(ctx,
		`SELECT id, username, email, role, company_id, created_at FROM users WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.store.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByCompanyAndRole lists a company's users with the given role.
// Rows stored with the legacy "manager" role match hiring_manager.
func (r *UserRepository) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	roles := []string{string(role)}
	if role == entity.RoleHiringManager {
		roles = append(roles, "manager")
	}

	rows, err := r.store.getExecutor(ctx).Query(ctx, `
		SELECT id, username, email, role, company_id, created_at
		FROM users
		WHERE company_id = $1 AND role = ANY($2)
		ORDER BY id
	`, companyID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &role, &user.CompanyID, &user.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := entity.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	return &user, nil
}

// AssignmentRepository implements port.AssignmentChecker
type AssignmentRepository struct {
	store *Store
}

// Assign links a hiring manager to an application
func (r *AssignmentRepository) Assign(ctx context.Context, applicationID, userID int64) error {
	_, err := r.store.getExecutor(ctx).Exec(ctx,
		`INSERT INTO application_assignments (application_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		applicationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign user: %w", err)
	}
	return nil
}

// IsAssigned reports whether the actor is assigned to the application
func (r *AssignmentRepository) IsAssigned(ctx context.Context, actor entity.Actor, applicationID int64) (bool, error) {
	var assigned bool
	err := r.store.getExecutor(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM application_assignments WHERE application_id = $1 AND user_id = $2)`,
		applicationID, actor.UserID,
	).Scan(&assigned)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

var (
	_ port.JobRepository     = (*JobRepository)(nil)
	_ port.UserRepository    = (*UserRepository)(nil)
	_ port.AssignmentChecker = (*AssignmentRepository)(nil)
)
