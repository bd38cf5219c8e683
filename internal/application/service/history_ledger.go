package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// HistoryLedger is the append-only audit trail of stage changes
type HistoryLedger interface {
	// Append records one committed transition. Call it with the transaction
	// context so the entry commits or rolls back with the stage change.
	Append(ctx context.Context, entry *entity.HistoryEntry) error

	// ListByApplication returns entries ascending by ChangedAt, then ID
	ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error)
}

type historyLedgerImpl struct {
	historyRepo port.HistoryRepository
}

// NewHistoryLedger creates a ledger backed by the history repository
func NewHistoryLedger(historyRepo port.HistoryRepository) HistoryLedger {
	return &historyLedgerImpl{historyRepo: historyRepo}
}

// Append validates and stores a history entry
func (l *historyLedgerImpl) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	if entry.ApplicationID <= 0 {
		return fmt.Errorf("history entry: missing application id")
	}
	if entry.ActorID <= 0 {
		return fmt.Errorf("history entry: missing actor id")
	}
	if !entry.FromStage.IsValid() || !entry.ToStage.IsValid() || entry.FromStage == entry.ToStage {
		return fmt.Errorf("history entry: bad stage pair %q -> %q", entry.FromStage, entry.ToStage)
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}

	if err := l.historyRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByApplication returns the full history of one application
func (l *historyLedgerImpl) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.HistoryEntry, error) {
	entries, err := l.historyRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if entries == nil {
		entries = []*entity.HistoryEntry{}
	}
	return entries, nil
}
