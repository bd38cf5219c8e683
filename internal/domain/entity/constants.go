package entity

import "fmt"

// Role is the permission role of a user
type Role string

// Role constants for User
const (
	RoleCandidate     Role = "candidate"
	RoleRecruiter     Role = "recruiter"
	RoleHiringManager Role = "hiring_manager"
)

// legacyRoleManager is the role string stored by earlier deployments
const legacyRoleManager = "manager"

// ParseRole converts a raw role string to a Role.
// The legacy value "manager" is accepted as hiring_manager.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleCandidate):
		return RoleCandidate, nil
	case string(RoleRecruiter):
		return RoleRecruiter, nil
	case string(RoleHiringManager), legacyRoleManager:
		return RoleHiringManager, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff returns true for roles that act on behalf of a company
func (r Role) IsStaff() bool {
	return r == RoleRecruiter || r == RoleHiringManager
}

// JobStatus is the open/closed state of a job posting
type JobStatus string

// Job status constants
const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)
