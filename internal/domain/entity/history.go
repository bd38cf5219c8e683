package entity

import (
	"time"

	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

// HistoryEntry is the immutable audit record of one committed stage change
type HistoryEntry struct {
	ID            int64          `json:"id"`
	ApplicationID int64          `json:"application_id"`
	FromStage     workflow.Stage `json:"from_stage"`
	ToStage       workflow.Stage `json:"to_stage"`
	ActorID       int64          `json:"actor_id"`
	ChangedAt     time.Time      `json:"changed_at"`
}
