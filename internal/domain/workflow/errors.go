package workflow

import (
	"errors"
	"fmt"
)

// Kind identifies a workflow failure.
type Kind string

const (
	KindEmptyName                Kind = "EmptyName"
	KindNoStates                 Kind = "NoStates"
	KindDuplicateStateIDs        Kind = "DuplicateStateIds"
	KindInvalidInitialStateCount Kind = "InvalidInitialStateCount"
	KindDuplicateActionIDs       Kind = "DuplicateActionIds"
	KindUnknownTargetState       Kind = "UnknownTargetState"
	KindUnknownSourceState       Kind = "UnknownSourceState"
	KindEmptyFromStates          Kind = "EmptyFromStates"

	KindDefinitionNotFound Kind = "DefinitionNotFound"
	KindInstanceNotFound   Kind = "InstanceNotFound"
	KindActionNotFound     Kind = "ActionNotFound"

	KindActionDisabled     Kind = "ActionDisabled"
	KindTerminalState      Kind = "TerminalState"
	KindInvalidSourceState Kind = "InvalidSourceState"

	KindNoInitialState       Kind = "NoInitialState"
	KindCurrentStateNotFound Kind = "CurrentStateNotFound"
	KindTargetStateNotFound  Kind = "TargetStateNotFound"
)

// Category groups kinds by how a caller should react to them.
type Category string

const (
	// CategoryValidation: the definition is malformed; resubmit a corrected one.
	CategoryValidation Category = "validation"
	// CategoryLookup: a referenced entity does not exist.
	CategoryLookup Category = "lookup"
	// CategoryTransition: the action does not apply to the instance's current state.
	CategoryTransition Category = "transition"
	// CategoryInvariant: stored data breaks a guarantee made at definition time.
	CategoryInvariant Category = "invariant"
)

var categories = map[Kind]Category{
	KindEmptyName:                CategoryValidation,
	KindNoStates:                 CategoryValidation,
	KindDuplicateStateIDs:        CategoryValidation,
	KindInvalidInitialStateCount: CategoryValidation,
	KindDuplicateActionIDs:       CategoryValidation,
	KindUnknownTargetState:       CategoryValidation,
	KindUnknownSourceState:       CategoryValidation,
	KindEmptyFromStates:          CategoryValidation,
	KindDefinitionNotFound:       CategoryLookup,
	KindInstanceNotFound:         CategoryLookup,
	KindActionNotFound:           CategoryLookup,
	KindActionDisabled:           CategoryTransition,
	KindTerminalState:            CategoryTransition,
	KindInvalidSourceState:       CategoryTransition,
	KindNoInitialState:           CategoryInvariant,
	KindCurrentStateNotFound:     CategoryInvariant,
	KindTargetStateNotFound:      CategoryInvariant,
}

// Category returns the category of the kind
func (k Kind) Category() Category {
	return categories[k]
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Error is a workflow failure. It carries the ids needed to identify the
// offending definition, instance, state or action.
type Error struct {
	Kind         Kind
	DefinitionID string
	InstanceID   string
	StateID      string
	ActionID     string
	// Count is the number of initial states found, for KindInvalidInitialStateCount.
	Count int

	message string
}

func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	return string(e.Kind)
}

// Is matches any *Error with the same Kind, so the exported sentinels work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrEmptyName                = &Error{Kind: KindEmptyName}
	ErrNoStates                 = &Error{Kind: KindNoStates}
	ErrDuplicateStateIDs        = &Error{Kind: KindDuplicateStateIDs}
	ErrInvalidInitialStateCount = &Error{Kind: KindInvalidInitialStateCount}
	ErrDuplicateActionIDs       = &Error{Kind: KindDuplicateActionIDs}
	ErrUnknownTargetState       = &Error{Kind: KindUnknownTargetState}
	ErrUnknownSourceState       = &Error{Kind: KindUnknownSourceState}
	ErrEmptyFromStates          = &Error{Kind: KindEmptyFromStates}
	ErrDefinitionNotFound       = &Error{Kind: KindDefinitionNotFound}
	ErrInstanceNotFound         = &Error{Kind: KindInstanceNotFound}
	ErrActionNotFound           = &Error{Kind: KindActionNotFound}
	ErrActionDisabled           = &Error{Kind: KindActionDisabled}
	ErrTerminalState            = &Error{Kind: KindTerminalState}
	ErrInvalidSourceState       = &Error{Kind: KindInvalidSourceState}
	ErrNoInitialState           = &Error{Kind: KindNoInitialState}
	ErrCurrentStateNotFound     = &Error{Kind: KindCurrentStateNotFound}
	ErrTargetStateNotFound      = &Error{Kind: KindTargetStateNotFound}
)

// KindOf returns the kind of a workflow error anywhere in err's chain
func KindOf(err error) (Kind, bool) {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind, true
	}
	return "", false
}

// CategoryOf returns the category of a workflow error anywhere in err's chain
func CategoryOf(err error) (Category, bool) {
	kind, ok := KindOf(err)
	if !ok {
		return "", false
	}
	return kind.Category(), true
}

// IsValidation reports whether err is a definition validation failure
func IsValidation(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryValidation
}

// IsLookup reports whether err references a nonexistent entity
func IsLookup(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryLookup
}

// IsTransition reports whether err rejects an action for the current state
func IsTransition(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryTransition
}

// IsInvariantViolation reports whether err signals corrupted stored data
func IsInvariantViolation(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryInvariant
}

func newEmptyName() *Error {
	return &Error{Kind: KindEmptyName, message: "workflow name cannot be empty"}
}

func newNoStates() *Error {
	return &Error{Kind: KindNoStates, message: "workflow must have at least one state"}
}

func newDuplicateStateIDs(stateID string) *Error {
	return &Error{
		Kind:    KindDuplicateStateIDs,
		StateID: stateID,
		message: fmt.Sprintf("duplicate state id %q", stateID),
	}
}

func newInvalidInitialStateCount(count int) *Error {
	return &Error{
		Kind:    KindInvalidInitialStateCount,
		Count:   count,
		message: fmt.Sprintf("workflow must have exactly one initial state, found %d", count),
	}
}

func newDuplicateActionIDs(actionID string) *Error {
	return &Error{
		Kind:     KindDuplicateActionIDs,
		ActionID: actionID,
		message:  fmt.Sprintf("duplicate action id %q", actionID),
	}
}

func newUnknownTargetState(actionID, stateID string) *Error {
	return &Error{
		Kind:     KindUnknownTargetState,
		ActionID: actionID,
		StateID:  stateID,
		message:  fmt.Sprintf("action %q references unknown target state %q", actionID, stateID),
	}
}

func newUnknownSourceState(actionID, stateID string) *Error {
	return &Error{
		Kind:     KindUnknownSourceState,
		ActionID: actionID,
		StateID:  stateID,
		message:  fmt.Sprintf("action %q references unknown source state %q", actionID, stateID),
	}
}

func newEmptyFromStates(actionID string) *Error {
	return &Error{
		Kind:     KindEmptyFromStates,
		ActionID: actionID,
		message:  fmt.Sprintf("action %q must have at least one source state", actionID),
	}
}

// NewDefinitionNotFound reports a missing workflow definition
func NewDefinitionNotFound(definitionID string) *Error {
	return &Error{
		Kind:         KindDefinitionNotFound,
		DefinitionID: definitionID,
		message:      fmt.Sprintf("workflow definition %q not found", definitionID),
	}
}

// NewInstanceNotFound reports a missing workflow instance
func NewInstanceNotFound(instanceID string) *Error {
	return &Error{
		Kind:       KindInstanceNotFound,
		InstanceID: instanceID,
		message:    fmt.Sprintf("workflow instance %q not found", instanceID),
	}
}

func newActionNotFound(def *Definition, actionID string) *Error {
	return &Error{
		Kind:         KindActionNotFound,
		DefinitionID: def.ID,
		ActionID:     actionID,
		message:      fmt.Sprintf("action %q not found in workflow definition %q", actionID, def.ID),
	}
}

func newActionDisabled(inst *Instance, actionID string) *Error {
	return &Error{
		Kind:         KindActionDisabled,
		DefinitionID: inst.DefinitionID,
		InstanceID:   inst.ID,
		ActionID:     actionID,
		message:      fmt.Sprintf("action %q is disabled", actionID),
	}
}

func newTerminalState(inst *Instance, actionID string) *Error {
	return &Error{
		Kind:         KindTerminalState,
		DefinitionID: inst.DefinitionID,
		InstanceID:   inst.ID,
		ActionID:     actionID,
		StateID:      inst.CurrentStateID,
		message:      fmt.Sprintf("cannot execute actions on final state %q", inst.CurrentStateID),
	}
}

func newInvalidSourceState(inst *Instance, actionID string) *Error {
	return &Error{
		Kind:         KindInvalidSourceState,
		DefinitionID: inst.DefinitionID,
		InstanceID:   inst.ID,
		ActionID:     actionID,
		StateID:      inst.CurrentStateID,
		message:      fmt.Sprintf("action %q cannot be executed from current state %q", actionID, inst.CurrentStateID),
	}
}

func newNoInitialState(definitionID string) *Error {
	return &Error{
		Kind:         KindNoInitialState,
		DefinitionID: definitionID,
		message:      fmt.Sprintf("no initial state found in workflow definition %q", definitionID),
	}
}

func newCurrentStateNotFound(inst *Instance) *Error {
	return &Error{
		Kind:         KindCurrentStateNotFound,
		DefinitionID: inst.DefinitionID,
		InstanceID:   inst.ID,
		StateID:      inst.CurrentStateID,
		message:      fmt.Sprintf("current state %q not found in workflow definition %q", inst.CurrentStateID, inst.DefinitionID),
	}
}

func newTargetStateNotFound(inst *Instance, action Action) *Error {
	return &Error{
		Kind:         KindTargetStateNotFound,
		DefinitionID: inst.DefinitionID,
		InstanceID:   inst.ID,
		ActionID:     action.ID,
		StateID:      action.ToState,
		message:      fmt.Sprintf("target state %q not found in workflow definition %q", action.ToState, inst.DefinitionID),
	}
}
