package port

import (
	"context"

	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// ApplicationRepository defines persistence operations for Application.
// Lookups return (nil, nil) when the row does not exist.
type ApplicationRepository interface {
	// Create inserts a new application and sets its ID.
	// Returns apperr.ErrDuplicateApplication when (candidate, job) already exists.
	Create(ctx context.Context, app *entity.Application) error
	GetByID(ctx context.Context, id int64) (*entity.Application, error)

	// GetForUpdate reads the application with an exclusive lock held until the
	// surrounding transaction ends. Must be called inside WithTransaction.
	GetForUpdate(ctx context.Context, id int64) (*entity.Application, error)

	// Save writes stage, version and updated_at only if the stored version still
	// equals expectedVersion, otherwise apperr.ErrConcurrentModification.
	Save(ctx context.Context, app *entity.Application, expectedVersion int64) error

	Exists(ctx context.Context, candidateID, jobID int64) (bool, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]*entity.Application, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]*entity.Application, error)
}

// HistoryRepository is the append-only ledger of stage changes.
// Entries are never updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.HistoryEntry) error

	// ListByApplication returns entries ascending by ChangedAt, then ID
	ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error)
}

// JobRepository defines read access to job postings
type JobRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Job, error)
}

// UserRepository defines read access to users
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role) ([]*entity.User, error)
}

// AssignmentChecker answers whether a hiring manager is assigned to an application
type AssignmentChecker interface {
	IsAssigned(ctx context.Context, actor entity.Actor, applicationID int64) (bool, error)
}

// TransactionManager handles database transactions.
// Repository calls made with the ctx passed to fn join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
