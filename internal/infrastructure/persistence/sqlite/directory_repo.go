package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// JobRepository implements port.JobRepository and seeds companies and jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateCompany inserts a company
func (r *JobRepository) CreateCompany(ctx context.Context, company *entity.Company) error {
	result, err := r.db.getExecutor(ctx).ExecContext(ctx, `INSERT INTO companies (name) VALUES (?)`, company.Name)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	company.ID, err = result.LastInsertId()
	return err
}

// Create inserts a job
func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	if job.Status == "" {
		job.Status = entity.JobStatusOpen
	}
	result, err := r.db.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO jobs (company_id, title, description, status) VALUES (?, ?, ?, ?)`,
		job.CompanyID, job.Title, job.Description, job.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	job.ID, err = result.LastInsertId()
	return err
}

// SetStatus opens or closes a job
func (r *JobRepository) SetStatus(ctx context.Context, id int64, status entity.JobStatus) error {
	_, err := r.db.getExecutor(ctx).ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*entity.Job, error) {
	var job entity.Job
	err := r.db.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT id, company_id, title, description, status, created_at FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.CompanyID, &job.Title, &job.Description, &job.Status, &job.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.db.logger.Error("Failed to get job by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	result, err := r.db.getExecutor(ctx).ExecContext(ctx,
		`INSERT INTO users (username, email, role, company_id) VALUES (?, ?, ?, ?)`,
		user.Username, user.Email, user.Role, nullableID(user.CompanyID),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user, err := scanUser(r.db.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT id, username, email, role, company_id, created_at FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.db.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByCompanyAndRole lists a company's users with the given role.
// Rows stored with the legacy "manager" role match hiring_manager.
func (r *UserRepository) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	roles := []interface{}{string(role), string(role)}
	if role == entity.RoleHiringManager {
		roles[1] = "manager"
	}

	rows, err := r.db.getExecutor(ctx).QueryContext(ctx, `
		SELECT id, username, email, role, company_id, created_at
		FROM users
		WHERE company_id = ? AND role IN (?, ?)
		ORDER BY id
	`, companyID, roles[0], roles[1])
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

func scanUser(row scanner) (*entity.User, error) {
	var user entity.User
	var role string
	var companyID sql.NullInt64
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &role, &companyID, &user.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := entity.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	if companyID.Valid {
		id := companyID.Int64
		user.CompanyID = &id
	}
	return &user, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// AssignmentRepository implements port.AssignmentChecker
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign links a hiring manager to an application
func (r *AssignmentRepository) Assign(ctx context.Context, applicationID, userID int64) error {
	_, err := r.db.getExecutor(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO application_assignments (application_id, user_id) VALUES (?, ?)`,
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
	err := r.db.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM application_assignments WHERE application_id = ? AND user_id = ?)`,
		applicationID, actor.UserID,
	).Scan(&assigned)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

// Verify interface compliance
var (
	_ port.JobRepository     = (*JobRepository)(nil)
	_ port.UserRepository    = (*UserRepository)(nil)
	_ port.AssignmentChecker = (*AssignmentRepository)(nil)
)
