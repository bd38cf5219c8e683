package memory

import (
	"context"
	"sort"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// JobRepository implements port.JobRepository and seeds companies and jobs
type JobRepository struct {
	s *Store
}

// CreateCompany inserts a company and sets its ID
func (r *JobRepository) CreateCompany(ctx context.Context, company *entity.Company) error {
	return r.s.write(ctx, func(st *state) error {
		company.ID = st.nextID("companies")
		st.companies[company.ID] = *company
		return nil
	})
}

// Create inserts a job and sets its ID
func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	return r.s.write(ctx, func(st *state) error {
		job.ID = st.nextID("jobs")
		st.jobs[job.ID] = *job
		return nil
	})
}

// SetStatus opens or closes a job
func (r *JobRepository) SetStatus(ctx context.Context, id int64, status entity.JobStatus) error {
	return r.s.write(ctx, func(st *state) error {
		job, ok := st.jobs[id]
		if !ok {
			return nil
		}
		job.Status = status
		st.jobs[id] = job
		return nil
	})
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*entity.Job, error) {
	var found *entity.Job
	err := r.s.read(ctx, func(st *state) error {
		if job, ok := st.jobs[id]; ok {
			found = &job
		}
		return nil
	})
	return found, err
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	s *Store
}

// Create inserts a user and sets its ID
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.s.write(ctx, func(st *state) error {
		user.ID = st.nextID("users")
		stored := *user
		stored.CompanyID = copyID(user.CompanyID)
		st.users[user.ID] = stored
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var found *entity.User
	err := r.s.read(ctx, func(st *state) error {
		if user, ok := st.users[id]; ok {
			user.CompanyID = copyID(user.CompanyID)
			found = &user
		}
		return nil
	})
	return found, err
}

func (r *UserRepository) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error) {
	users := []*entity.User{}
	err := r.s.read(ctx, func(st *state) error {
		for _, user := range st.users {
			if user.Role == role && user.CompanyID != nil && *user.CompanyID == companyID {
				user.CompanyID = copyID(user.CompanyID)
				users = append(users, &user)
			}
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, err
}

// AssignmentRepository implements port.AssignmentChecker
type AssignmentRepository struct {
	s *Store
}

// Assign links a hiring manager to an application
func (r *AssignmentRepository) Assign(ctx context.Context, applicationID, userID int64) error {
	return r.s.write(ctx, func(st *state) error {
		st.assignments[assignmentKey{applicationID: applicationID, userID: userID}] = true
		return nil
	})
}

func (r *AssignmentRepository) IsAssigned(ctx context.Context, actor entity.Actor, applicationID int64) (bool, error) {
	var assigned bool
	err := r.s.read(ctx, func(st *state) error {
		assigned = st.assignments[assignmentKey{applicationID: applicationID, userID: actor.UserID}]
		return nil
	})
	return assigned, err
}

var (
	_ port.JobRepository     = (*JobRepository)(nil)
	_ port.UserRepository    = (*UserRepository)(nil)
	_ port.AssignmentChecker = (*AssignmentRepository)(nil)
)
