package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStates() []State {
	return []State{
		{ID: "a", Name: "A", IsInitial: true, Enabled: true},
		{ID: "b", Name: "B", IsFinal: true, Enabled: true},
	}
}

func validActions() []Action {
	return []Action{
		{ID: "go", Name: "Go", Enabled: true, FromStates: []string{"a"}, ToState: "b"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		defName string
		states  []State
		actions []Action
		want    error
		check   func(t *testing.T, e *Error)
	}{
		{
			name:    "valid definition",
			defName: "Flow",
			states:  validStates(),
			actions: validActions(),
		},
		{
			name:    "no actions is valid",
			defName: "Flow",
			states:  validStates(),
		},
		{
			name:    "empty name",
			defName: "",
			states:  validStates(),
			want:    ErrEmptyName,
		},
		{
			name:    "whitespace name",
			defName: "  \t ",
			states:  validStates(),
			want:    ErrEmptyName,
		},
		{
			name:    "empty name reported before missing states",
			defName: " ",
			want:    ErrEmptyName,
		},
		{
			name:    "no states",
			defName: "Flow",
			states:  []State{},
			want:    ErrNoStates,
		},
		{
			name:    "duplicate state ids",
			defName: "Flow",
			states: []State{
				{ID: "a", IsInitial: true},
				{ID: "a"},
			},
			want: ErrDuplicateStateIDs,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, "a", e.StateID)
			},
		},
		{
			name:    "duplicate states reported before initial count",
			defName: "Flow",
			states: []State{
				{ID: "a"},
				{ID: "a"},
			},
			want: ErrDuplicateStateIDs,
		},
		{
			name:    "zero initial states",
			defName: "Flow",
			states: []State{
				{ID: "a"},
				{ID: "b"},
			},
			want: ErrInvalidInitialStateCount,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, 0, e.Count)
				assert.Equal(t, "workflow must have exactly one initial state, found 0", e.Error())
			},
		},
		{
			name:    "two initial states",
			defName: "Flow",
			states: []State{
				{ID: "a", IsInitial: true},
				{ID: "b", IsInitial: true},
			},
			want: ErrInvalidInitialStateCount,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, 2, e.Count)
			},
		},
		{
			name:    "duplicate action ids",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "go", FromStates: []string{"a"}, ToState: "b"},
				{ID: "go", FromStates: []string{"a"}, ToState: "b"},
			},
			want: ErrDuplicateActionIDs,
		},
		{
			name:    "unknown target state",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "go", FromStates: []string{"a"}, ToState: "z"},
			},
			want: ErrUnknownTargetState,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, "go", e.ActionID)
				assert.Equal(t, "z", e.StateID)
			},
		},
		{
			name:    "unknown target reported before unknown source",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "go", FromStates: []string{"y"}, ToState: "z"},
			},
			want: ErrUnknownTargetState,
		},
		{
			name:    "unknown source state",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "go", FromStates: []string{"a", "y"}, ToState: "b"},
			},
			want: ErrUnknownSourceState,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, "y", e.StateID)
			},
		},
		{
			name:    "empty from states",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "go", FromStates: []string{}, ToState: "b"},
			},
			want: ErrEmptyFromStates,
		},
		{
			name:    "actions are checked in order",
			defName: "Flow",
			states:  validStates(),
			actions: []Action{
				{ID: "first", ToState: "b"},
				{ID: "second", FromStates: []string{"a"}, ToState: "z"},
			},
			want: ErrEmptyFromStates,
			check: func(t *testing.T, e *Error) {
				assert.Equal(t, "first", e.ActionID)
			},
		},
		{
			name:    "final initial state is allowed",
			defName: "Flow",
			states: []State{
				{ID: "only", IsInitial: true, IsFinal: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.defName, tt.states, tt.actions)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))

			if tt.check != nil {
				var wfErr *Error
				require.True(t, errors.As(err, &wfErr))
				tt.check(t, wfErr)
			}
		})
	}
}

func TestNewDefinition_CopiesInput(t *testing.T) {
	states := validStates()
	actions := validActions()

	def, err := NewDefinition("def-1", "  Flow  ", states, actions, testTime)
	require.NoError(t, err)

	assert.Equal(t, "def-1", def.ID)
	assert.Equal(t, "  Flow  ", def.Name)
	assert.Equal(t, testTime, def.CreatedAt)

	states[0].ID = "mutated"
	actions[0].FromStates[0] = "mutated"

	initial, ok := def.InitialState()
	require.True(t, ok)
	assert.Equal(t, "a", initial.ID)

	action, ok := def.Action("go")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, action.FromStates)
}

func TestNewDefinition_InvalidReturnsNil(t *testing.T) {
	def, err := NewDefinition("def-1", "", validStates(), nil, testTime)
	assert.Nil(t, def)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestDefinition_Clone(t *testing.T) {
	def, err := NewDefinition("def-1", "Flow", validStates(), validActions(), testTime)
	require.NoError(t, err)

	clone := def.Clone()
	assert.Equal(t, def, clone)

	clone.Actions[0].FromStates[0] = "b"
	clone.States[1].Name = "changed"

	assert.Equal(t, "a", def.Actions[0].FromStates[0])
	assert.Equal(t, "B", def.States[1].Name)
}

func TestError_Categories(t *testing.T) {
	tests := []struct {
		err      error
		category Category
	}{
		{ErrEmptyName, CategoryValidation},
		{ErrEmptyFromStates, CategoryValidation},
		{NewDefinitionNotFound("x"), CategoryLookup},
		{NewInstanceNotFound("x"), CategoryLookup},
		{ErrActionNotFound, CategoryLookup},
		{ErrActionDisabled, CategoryTransition},
		{ErrTerminalState, CategoryTransition},
		{ErrInvalidSourceState, CategoryTransition},
		{ErrNoInitialState, CategoryInvariant},
		{ErrCurrentStateNotFound, CategoryInvariant},
		{ErrTargetStateNotFound, CategoryInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, ok := CategoryOf(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.category, got)
		})
	}

	_, ok := CategoryOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := NewInstanceNotFound("inst-9")
	wrapped := errors.Join(errors.New("context"), err)

	assert.ErrorIs(t, wrapped, ErrInstanceNotFound)
	assert.NotErrorIs(t, wrapped, ErrDefinitionNotFound)
	assert.True(t, IsLookup(wrapped))
	assert.Equal(t, `workflow instance "inst-9" not found`, err.Error())
}
