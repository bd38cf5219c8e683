// Package apperr holds the typed failures surfaced by the hiring pipeline core.
// Callers branch on them with errors.Is / errors.As or on the stable Code.
package apperr

import (
	"errors"
	"fmt"

	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

var (
	ErrDuplicateApplication   = errors.New("application already exists for candidate and job")
	ErrJobClosed              = errors.New("job is not accepting applications")
	ErrInvalidTransition      = errors.New("invalid stage transition")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("application was modified concurrently")
)

// Stable error codes
const (
	CodeDuplicateApplication   = "duplicate_application"
	CodeJobClosed              = "job_closed"
	CodeInvalidTransition      = "invalid_transition"
	CodeUnauthorized           = "unauthorized"
	CodeNotFound               = "not_found"
	CodeConcurrentModification = "concurrent_modification"
	CodeInternal               = "internal"
)

// TransitionError is returned when a stage change is not in the transition table
type TransitionError struct {
	From workflow.Stage
	To   workflow.Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid stage transition from %s to %s", e.From, e.To)
}

// Unwrap makes errors.Is(err, ErrInvalidTransition) hold
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// AuthorizationError carries the machine-readable reason of a denied action
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("unauthorized to %s: %s", e.Action, e.Reason)
}

// Unwrap makes errors.Is(err, ErrUnauthorized) hold
func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

// NotFound wraps ErrNotFound with the missing resource
func NotFound(resource string, id int64) error {
	return fmt.Errorf("%s %d: %w", resource, id, ErrNotFound)
}

var codes = []struct {
	err  error
	code string
}{
	{ErrDuplicateApplication, CodeDuplicateApplication},
	{ErrJobClosed, CodeJobClosed},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrNotFound, CodeNotFound},
	{ErrConcurrentModification, CodeConcurrentModification},
}

// Code returns the stable code of err, "" for nil and "internal" for untyped errors
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
