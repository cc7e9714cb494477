package workflow

import (
	"strings"
	"time"
)

// Definition is an immutable workflow template. It owns its states and
// actions; NewDefinition and Clone copy them so callers never share slices
// with a stored definition.
type Definition struct {
	ID        string
	Name      string
	States    []State
	Actions   []Action
	CreatedAt time.Time
}

// NewDefinition validates the candidate and returns a definition stamped with
// the given id and creation time. The first violated rule is returned as an
// *Error; see Validate for the order.
func NewDefinition(id, name string, states []State, actions []Action, createdAt time.Time) (*Definition, error) {
	if err := Validate(name, states, actions); err != nil {
		return nil, err
	}

	return &Definition{
		ID:        id,
		Name:      name,
		States:    cloneStates(states),
		Actions:   cloneActions(actions),
		CreatedAt: createdAt,
	}, nil
}

// Validate checks the structure of a candidate definition, failing fast in a
// fixed order so the reported error is deterministic:
//
//  1. name is non-empty after trimming
//  2. at least one state
//  3. state ids are unique
//  4. exactly one initial state
//  5. action ids are unique
//  6. per action: known target, known sources, non-empty sources
//
// Enabled and IsFinal flags are not inspected.
func Validate(name string, states []State, actions []Action) error {
	if strings.TrimSpace(name) == "" {
		return newEmptyName()
	}

	if len(states) == 0 {
		return newNoStates()
	}

	stateIDs := make(map[string]struct{}, len(states))
	for _, s := range states {
		if _, dup := stateIDs[s.ID]; dup {
			return newDuplicateStateIDs(s.ID)
		}
		stateIDs[s.ID] = struct{}{}
	}

	initial := 0
	for _, s := range states {
		if s.IsInitial {
			initial++
		}
	}
	if initial != 1 {
		return newInvalidInitialStateCount(initial)
	}

	actionIDs := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		if _, dup := actionIDs[a.ID]; dup {
			return newDuplicateActionIDs(a.ID)
		}
		actionIDs[a.ID] = struct{}{}
	}

	for _, a := range actions {
		if _, ok := stateIDs[a.ToState]; !ok {
			return newUnknownTargetState(a.ID, a.ToState)
		}
		for _, from := range a.FromStates {
			if _, ok := stateIDs[from]; !ok {
				return newUnknownSourceState(a.ID, from)
			}
		}
		if len(a.FromStates) == 0 {
			return newEmptyFromStates(a.ID)
		}
	}

	return nil
}

// State looks up a state by id
func (d *Definition) State(id string) (State, bool) {
	for _, s := range d.States {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}

// Action looks up an action by id
func (d *Definition) Action(id string) (Action, bool) {
	for _, a := range d.Actions {
		if a.ID == id {
			return a.clone(), true
		}
	}
	return Action{}, false
}

// InitialState returns the first state flagged initial
func (d *Definition) InitialState() (State, bool) {
	for _, s := range d.States {
		if s.IsInitial {
			return s, true
		}
	}
	return State{}, false
}

// Clone returns a deep copy of the definition
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	return &Definition{
		ID:        d.ID,
		Name:      d.Name,
		States:    cloneStates(d.States),
		Actions:   cloneActions(d.Actions),
		CreatedAt: d.CreatedAt,
	}
}
