package entity

import "time"

// User is a candidate, recruiter or hiring manager.
// Recruiters and hiring managers belong to exactly one company; candidates to none.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CompanyID *int64    `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated caller of a core operation
type Actor struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

// ActorFromUser builds the actor for a loaded user
func ActorFromUser(u *User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}

// BelongsTo reports whether the actor is a member of the given company
func (a Actor) BelongsTo(companyID int64) bool {
	return a.CompanyID != nil && *a.CompanyID == companyID
}

// Company owns zero or more jobs
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Job is a posting that candidates apply to
type Job struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOpen returns true if the job accepts new applications
func (j *Job) IsOpen() bool {
	return j.Status == JobStatusOpen
}
