package workflow

// State is a named node of a workflow graph.
//
// Enabled is informational only: transition admissibility never looks at it.
// Only Action.Enabled and State.IsFinal gate execution.
type State struct {
	ID          string
	Name        string
	IsInitial   bool
	IsFinal     bool
	Enabled     bool
	Description string
}

// Action is a directed transition rule from one or more source states to a
// single target state.
type Action struct {
	ID          string
	Name        string
	Enabled     bool
	FromStates  []string
	ToState     string
	Description string
}

// PermitsFrom returns true if the action lists stateID as a source state
func (a Action) PermitsFrom(stateID string) bool {
	for _, from := range a.FromStates {
		if from == stateID {
			return true
		}
	}
	return false
}

func (a Action) clone() Action {
	a.FromStates = append([]string(nil), a.FromStates...)
	return a
}

func cloneStates(states []State) []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

func cloneActions(actions []Action) []Action {
	out := make([]Action, len(actions))
	for i, a := range actions {
		out[i] = a.clone()
	}
	return out
}
