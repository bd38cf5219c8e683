package event

// Type identifies the type of domain event
type Type string

const (
	TypeApplicationCreated Type = "application.created"
	TypeStageChanged       Type = "application.stage_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeApplicationCreated,
		TypeStageChanged:
		return true
	default:
		return false
	}
}
