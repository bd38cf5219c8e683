package workflow

import "fmt"

// Stage represents one step of an application's hiring pipeline
type Stage string

const (
	StageApplied   Stage = "Applied"
	StageScreening Stage = "Screening"
	StageInterview Stage = "Interview"
	StageOffer     Stage = "Offer"
	StageHired     Stage = "Hired"
	StageRejected  Stage = "Rejected"
)

// pipelineOrder lists every stage in the order candidates move through them
var pipelineOrder = []Stage{
	StageApplied,
	StageScreening,
	StageInterview,
	StageOffer,
	StageHired,
	StageRejected,
}

var validStages = map[Stage]bool{
	StageApplied:   true,
	StageScreening: true,
	StageInterview: true,
	StageOffer:     true,
	StageHired:     true,
	StageRejected:  true,
}

var terminalStages = map[Stage]bool{
	StageHired:    true,
	StageRejected: true,
}

// Stages returns all stages in pipeline order
func Stages() []Stage {
	return append([]Stage(nil), pipelineOrder...)
}

// ParseStage converts a raw string to a Stage. Matching is exact and case-sensitive.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
	}
	return st, nil
}

// IsTerminal returns true if no transition may leave the stage
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is one of the pipeline stages
func (s Stage) IsValid() bool {
	return validStages[s]
}
