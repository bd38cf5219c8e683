package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts a new history record
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO application_history (
			application_id, from_stage, to_stage, actor_id, changed_at
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.getExecutor(ctx).ExecContext(ctx, query,
		entry.ApplicationID,
		entry.FromStage,
		entry.ToStage,
		entry.ActorID,
		entry.ChangedAt.UTC(),
	)
	if err != nil {
		r.db.logger.Error("Failed to append history record", zap.Int64("application_id", entry.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByApplication retrieves all history records for an application
func (r *HistoryRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, application_id, from_stage, to_stage, actor_id, changed_at
		FROM application_history
		WHERE application_id = ?
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.getExecutor(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		r.db.logger.Error("Failed to get history by application ID", zap.Int64("application_id", applicationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.HistoryEntry{}
	for rows.Next() {
		var record entity.HistoryEntry
		err := rows.Scan(
			&record.ID,
			&record.ApplicationID,
			&record.FromStage,
			&record.ToStage,
			&record.ActorID,
			&record.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
