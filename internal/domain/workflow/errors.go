package workflow

import "errors"

var (
	// ErrInvalidStage is returned when a string does not name a pipeline stage
	ErrInvalidStage = errors.New("invalid stage")
)
