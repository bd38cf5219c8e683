package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	store *Store
}

// Append inserts a new history record
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	err := r.store.getExecutor(ctx).QueryRow(ctx, `
		INSERT INTO application_history (application_id, from_stage, to_stage, actor_id, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		entry.ApplicationID,
		entry.FromStage,
		entry.ToStage,
		entry.ActorID,
		entry.ChangedAt,
	).Scan(&entry.ID)
	if err != nil {
		r.store.logger.Error("Failed to append history record", zap.Int64("application_id", entry.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ListByApplication retrieves all history records for an application, oldest first
func (r *HistoryRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
	rows, err := r.store.getExecutor(ctx).Query(ctx, `
		SELECT id, application_id, from_stage, to_stage, actor_id, changed_at
		FROM application_history
		WHERE application_id = $1
		ORDER BY changed_at ASC, id ASC
	`, applicationID)
	if err != nil {
		r.store.logger.Error("Failed to get history by application ID", zap.Int64("application_id", applicationID), zap.Error(err))
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

var _ port.HistoryRepository = (*HistoryRepository)(nil)
