// Package authz decides which actor may perform which action on which record.
// Every rule lives in Authorize; callers never inspect roles themselves.
package authz

import (
	"context"

	"github.com/garyjia/ats-pipeline/internal/application/apperr"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Action is an operation subject to authorization
type Action string

const (
	ActionCreateApplication Action = "create_application"
	ActionChangeStage       Action = "change_stage"
	ActionListApplications  Action = "list_applications"
	ActionListHistory       Action = "list_history"
)

// DenyReason tells callers why an action was refused
type DenyReason string

const (
	ReasonRoleMismatch    DenyReason = "role_mismatch"
	ReasonCompanyMismatch DenyReason = "company_mismatch"
	ReasonNotAssigned     DenyReason = "not_assigned"
	ReasonNotOwner        DenyReason = "not_owner"
	ReasonUnknownAction   DenyReason = "unknown_action"
)

// Target names the records an action touches. Zero fields are "not applicable".
type Target struct {
	CandidateID   int64
	CompanyID     int64
	ApplicationID int64
}

// TargetOf returns the target describing an existing application
func TargetOf(app *entity.Application) Target {
	return Target{
		CandidateID:   app.CandidateID,
		CompanyID:     app.CompanyID,
		ApplicationID: app.ID,
	}
}

// Decision is the outcome of Authorize
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow returns a positive decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision with a reason
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err converts a deny into *apperr.AuthorizationError, nil when allowed
func (d Decision) Err(action Action) error {
	if d.Allowed {
		return nil
	}
	return &apperr.AuthorizationError{Action: string(action), Reason: string(d.Reason)}
}

// Gate is the single authorization decision point
type Gate struct {
	assignments port.AssignmentChecker
	logger      Logger
}

// NewGate creates a gate. assignments may be nil, in which case hiring
// managers are never assigned to anything.
func NewGate(assignments port.AssignmentChecker, logger Logger) *Gate {
	return &Gate{
		assignments: assignments,
		logger:      logger,
	}
}

// Authorize decides whether actor may perform action on target
func (g *Gate) Authorize(ctx context.Context, actor entity.Actor, action Action, target Target) Decision {
	var d Decision
	switch action {
	case ActionCreateApplication:
		d = g.createApplication(actor, target)
	case ActionChangeStage:
		d = g.changeStage(ctx, actor, target)
	case ActionListApplications, ActionListHistory:
		d = g.read(actor, target)
	default:
		d = Deny(ReasonUnknownAction)
	}

	if !d.Allowed {
		g.logger.Info("Authorization denied",
			"actor_id", actor.UserID,
			"role", actor.Role,
			"action", action,
			"reason", d.Reason,
			"application_id", target.ApplicationID,
		)
	}
	return d
}

func (g *Gate) createApplication(actor entity.Actor, target Target) Decision {
	if actor.Role != entity.RoleCandidate {
		return Deny(ReasonRoleMismatch)
	}
	if target.CandidateID != actor.UserID {
		return Deny(ReasonNotOwner)
	}
	return Allow()
}

func (g *Gate) changeStage(ctx context.Context, actor entity.Actor, target Target) Decision {
	if !actor.Role.IsStaff() {
		return Deny(ReasonRoleMismatch)
	}
	if !actor.BelongsTo(target.CompanyID) {
		return Deny(ReasonCompanyMismatch)
	}
	if actor.Role == entity.RoleHiringManager {
		return g.assigned(ctx, actor, target.ApplicationID)
	}
	return Allow()
}

// read covers ListApplications and ListHistory: candidates see their own
// applications, staff see their company's.
func (g *Gate) read(actor entity.Actor, target Target) Decision {
	switch {
	case actor.Role == entity.RoleCandidate:
		if target.CandidateID == 0 {
			return Deny(ReasonRoleMismatch)
		}
		if target.CandidateID != actor.UserID {
			return Deny(ReasonNotOwner)
		}
		return Allow()
	case actor.Role.IsStaff():
		if !actor.BelongsTo(target.CompanyID) {
			return Deny(ReasonCompanyMismatch)
		}
		return Allow()
	default:
		return Deny(ReasonRoleMismatch)
	}
}

func (g *Gate) assigned(ctx context.Context, actor entity.Actor, applicationID int64) Decision {
	if g.assignments == nil {
		return Deny(ReasonNotAssigned)
	}
	ok, err := g.assignments.IsAssigned(ctx, actor, applicationID)
	if err != nil {
		g.logger.Error("Assignment lookup failed", "error", err, "actor_id", actor.UserID, "application_id", applicationID)
		return Deny(ReasonNotAssigned)
	}
	if !ok {
		return Deny(ReasonNotAssigned)
	}
	return Allow()
}
