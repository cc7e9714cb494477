package workflow

import "time"

// HistoryEntry is an immutable record of one executed transition. The action
// name is a snapshot taken at execution time.
type HistoryEntry struct {
	ActionID   string
	ActionName string
	FromState  string
	ToState    string
	ExecutedAt time.Time
}

// Instance is a runtime execution of a definition. It references its
// definition by id and is advanced only through Fire + Apply.
type Instance struct {
	ID             string
	DefinitionID   string
	CurrentStateID string
	History        []HistoryEntry
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// NewInstance creates an instance positioned on the definition's initial
// state. A definition without an initial state can only come from a store
// that bypassed validation, so it is reported as KindNoInitialState.
func NewInstance(id string, def *Definition, now time.Time) (*Instance, error) {
	initial, ok := def.InitialState()
	if !ok {
		return nil, newNoInitialState(def.ID)
	}

	return &Instance{
		ID:             id,
		DefinitionID:   def.ID,
		CurrentStateID: initial.ID,
		History:        []HistoryEntry{},
		CreatedAt:      now,
		LastModifiedAt: now,
	}, nil
}

// Apply records a transition: the entry is appended, and the current state
// and modification time follow it. Callers must hold whatever lock guards
// the instance.
func (i *Instance) Apply(entry HistoryEntry) {
	i.History = append(i.History, entry)
	i.CurrentStateID = entry.ToState
	i.LastModifiedAt = entry.ExecutedAt
}

// Clone returns a deep copy of the instance
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	out := *i
	out.History = make([]HistoryEntry, len(i.History))
	copy(out.History, i.History)
	return &out
}
