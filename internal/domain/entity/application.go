package entity

import (
	"time"

	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

// Application is one candidate's application to one job.
// Version increases by one on every committed stage change.
type Application struct {
	ID          int64          `json:"id"`
	CandidateID int64          `json:"candidate_id"`
	JobID       int64          `json:"job_id"`
	CompanyID   int64          `json:"company_id"`
	Stage       workflow.Stage `json:"stage"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a copy that can be mutated without affecting the original
func (a *Application) Clone() *Application {
	c := *a
	return &c
}
