package event

// Type identifies the type of domain event
type Type string

const (
	// TypeDefinitionCreated fires after a workflow definition is stored
	TypeDefinitionCreated Type = "definition.created"
	// TypeInstanceStarted fires after an instance is created on its initial state
	TypeInstanceStarted Type = "instance.started"
	// TypeActionExecuted fires after a transition is committed
	TypeActionExecuted Type = "action.executed"
)

// All returns every event type the engine emits
func All() []Type {
	return []Type{TypeDefinitionCreated, TypeInstanceStarted, TypeActionExecuted}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDefinitionCreated,
		TypeInstanceStarted,
		TypeActionExecuted:
		return true
	default:
		return false
	}
}
