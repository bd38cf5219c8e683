// Package workflow defines the hiring pipeline and its legal stage transitions.
//
//	Applied ──► Screening ──► Interview ──► Offer ──► Hired
//	   │            │             │           │
//	   └────────────┴─────────────┴───────────┴──► Rejected
//
// Hired and Rejected are terminal.
package workflow

// Transition is a single (from, to) pair
type Transition struct {
	From Stage
	To   Stage
}

// Table is an immutable lookup of legal stage transitions
type Table struct {
	legal map[Stage]map[Stage]bool
}

var defaultTable = buildDefaultTable()

func buildDefaultTable() *Table {
	b := NewBuilder()

	b.Configure(StageApplied).
		Permit(StageScreening).
		Permit(StageRejected)

	b.Configure(StageScreening).
		Permit(StageInterview).
		Permit(StageRejected)

	b.Configure(StageInterview).
		Permit(StageOffer).
		Permit(StageRejected)

	b.Configure(StageOffer).
		Permit(StageHired).
		Permit(StageRejected)

	return b.Build()
}

// DefaultTable returns the hiring pipeline table
func DefaultTable() *Table {
	return defaultTable
}

// IsLegal reports whether moving from → to is permitted.
// Unknown stages and unconfigured pairs are illegal.
func (t *Table) IsLegal(from, to Stage) bool {
	return t.legal[from][to]
}

// Targets returns the legal targets of a stage in pipeline order
func (t *Table) Targets(from Stage) []Stage {
	targets := make([]Stage, 0, 2)
	for _, to := range pipelineOrder {
		if t.legal[from][to] {
			targets = append(targets, to)
		}
	}
	return targets
}

// Pairs enumerates every legal transition, ordered by source then target stage
func (t *Table) Pairs() []Transition {
	var pairs []Transition
	for _, from := range pipelineOrder {
		for _, to := range t.Targets(from) {
			pairs = append(pairs, Transition{From: from, To: to})
		}
	}
	return pairs
}

// IsLegal checks a transition against the default pipeline table
func IsLegal(from, to Stage) bool {
	return defaultTable.IsLegal(from, to)
}
