package workflow

import (
	"errors"
	"testing"
	"time"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// articleDefinition builds draft -> review -> published with a disabled
// archive action and a reject loop back to draft.
func articleDefinition(t *testing.T) *Definition {
	t.Helper()

	def, err := NewDefinition("def-1", "Article",
		[]State{
			{ID: "draft", Name: "Draft", IsInitial: true, Enabled: true},
			{ID: "review", Name: "In Review", Enabled: true},
			{ID: "published", Name: "Published", IsFinal: true, Enabled: true},
			{ID: "archived", Name: "Archived", IsFinal: true, Enabled: false},
		},
		[]Action{
			{ID: "submit", Name: "Submit", Enabled: true, FromStates: []string{"draft"}, ToState: "review"},
			{ID: "reject", Name: "Reject", Enabled: true, FromStates: []string{"review"}, ToState: "draft"},
			{ID: "publish", Name: "Publish", Enabled: true, FromStates: []string{"review", "published"}, ToState: "published"},
			{ID: "archive", Name: "Archive", Enabled: false, FromStates: []string{"draft", "review"}, ToState: "archived"},
		},
		testTime,
	)
	if err != nil {
		t.Fatalf("NewDefinition() failed: %v", err)
	}
	return def
}

func newTestInstance(t *testing.T, def *Definition) *Instance {
	t.Helper()

	inst, err := NewInstance("inst-1", def, testTime)
	if err != nil {
		t.Fatalf("NewInstance() failed: %v", err)
	}
	return inst
}

func TestNewInstance_StartsOnInitialState(t *testing.T) {
	def := articleDefinition(t)
	inst := newTestInstance(t, def)

	if inst.CurrentStateID != "draft" {
		t.Errorf("CurrentStateID = %v, want %v", inst.CurrentStateID, "draft")
	}
	if inst.DefinitionID != def.ID {
		t.Errorf("DefinitionID = %v, want %v", inst.DefinitionID, def.ID)
	}
	if len(inst.History) != 0 {
		t.Errorf("History length = %d, want 0", len(inst.History))
	}
	if !inst.CreatedAt.Equal(testTime) || !inst.LastModifiedAt.Equal(testTime) {
		t.Errorf("timestamps = %v/%v, want %v", inst.CreatedAt, inst.LastModifiedAt, testTime)
	}
}

func TestNewInstance_NoInitialState(t *testing.T) {
	// Bypasses NewDefinition, as a corrupted store would.
	def := &Definition{ID: "broken", Name: "Broken", States: []State{{ID: "a"}}}

	_, err := NewInstance("inst-1", def, testTime)
	if !errors.Is(err, ErrNoInitialState) {
		t.Fatalf("NewInstance() error = %v, want %v", err, ErrNoInitialState)
	}
	if !IsInvariantViolation(err) {
		t.Error("NoInitialState should be an invariant violation")
	}
}

func TestFire_Success(t *testing.T) {
	def := articleDefinition(t)
	inst := newTestInstance(t, def)

	entry, err := Fire(def, inst, "submit", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	want := HistoryEntry{
		ActionID:   "submit",
		ActionName: "Submit",
		FromState:  "draft",
		ToState:    "review",
		ExecutedAt: testTime.Add(time.Minute),
	}
	if entry != want {
		t.Errorf("Fire() entry = %+v, want %+v", entry, want)
	}

	if inst.CurrentStateID != "draft" || len(inst.History) != 0 {
		t.Error("Fire() must not mutate the instance")
	}
}

func TestFire_CheckOrder(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		actionID string
		want     error
	}{
		{"unknown action", "draft", "missing", ErrActionNotFound},
		{"unknown action wins over unknown current state", "ghost", "missing", ErrActionNotFound},
		{"unknown current state", "ghost", "submit", ErrCurrentStateNotFound},
		{"unknown current state wins over disabled action", "ghost", "archive", ErrCurrentStateNotFound},
		{"disabled action from valid source", "draft", "archive", ErrActionDisabled},
		{"disabled action wins over terminal state", "published", "archive", ErrActionDisabled},
		{"terminal state even when listed as source", "published", "publish", ErrTerminalState},
		{"terminal state wins over invalid source", "published", "submit", ErrTerminalState},
		{"invalid source state", "draft", "publish", ErrInvalidSourceState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := articleDefinition(t)
			inst := newTestInstance(t, def)
			inst.CurrentStateID = tt.current

			_, err := Fire(def, inst, tt.actionID, testTime)
			if !errors.Is(err, tt.want) {
				t.Errorf("Fire() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFire_TargetStateNotFound(t *testing.T) {
	def := articleDefinition(t)
	// Corrupt the stored definition after validation.
	def.Actions[0].ToState = "nowhere"
	inst := newTestInstance(t, def)

	_, err := Fire(def, inst, "submit", testTime)
	if !errors.Is(err, ErrTargetStateNotFound) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrTargetStateNotFound)
	}

	var wfErr *Error
	if !errors.As(err, &wfErr) || wfErr.StateID != "nowhere" || wfErr.ActionID != "submit" {
		t.Errorf("error details = %+v, want action submit and state nowhere", wfErr)
	}
}

func TestFire_DisabledStateDoesNotGate(t *testing.T) {
	def, err := NewDefinition("def-2", "Toggle",
		[]State{
			{ID: "off", IsInitial: true, Enabled: false},
			{ID: "on", Enabled: false},
		},
		[]Action{
			{ID: "flip", Name: "Flip", Enabled: true, FromStates: []string{"off"}, ToState: "on"},
		},
		testTime,
	)
	if err != nil {
		t.Fatalf("NewDefinition() failed: %v", err)
	}
	inst := newTestInstance(t, def)

	if _, err := Fire(def, inst, "flip", testTime); err != nil {
		t.Errorf("Fire() failed on disabled states: %v", err)
	}
}

func TestInstance_Apply(t *testing.T) {
	def := articleDefinition(t)
	inst := newTestInstance(t, def)

	steps := []struct {
		actionID      string
		expectedState string
	}{
		{"submit", "review"},
		{"reject", "draft"},
		{"submit", "review"},
		{"publish", "published"},
	}

	for i, step := range steps {
		at := testTime.Add(time.Duration(i+1) * time.Minute)
		entry, err := Fire(def, inst, step.actionID, at)
		if err != nil {
			t.Fatalf("Step %d: Fire(%v) failed: %v", i, step.actionID, err)
		}
		inst.Apply(entry)

		if inst.CurrentStateID != step.expectedState {
			t.Errorf("Step %d: state after %v = %v, want %v", i, step.actionID, inst.CurrentStateID, step.expectedState)
		}
		if !inst.LastModifiedAt.Equal(at) {
			t.Errorf("Step %d: LastModifiedAt = %v, want %v", i, inst.LastModifiedAt, at)
		}
	}

	if len(inst.History) != len(steps) {
		t.Fatalf("History length = %d, want %d", len(inst.History), len(steps))
	}
	last := inst.History[len(inst.History)-1]
	if last.ToState != inst.CurrentStateID {
		t.Errorf("last history target %v does not match current state %v", last.ToState, inst.CurrentStateID)
	}

	if _, err := Fire(def, inst, "publish", testTime); !errors.Is(err, ErrTerminalState) {
		t.Errorf("Fire() after final state error = %v, want %v", err, ErrTerminalState)
	}
}

func TestPermittedActions(t *testing.T) {
	def := articleDefinition(t)
	inst := newTestInstance(t, def)

	actions := PermittedActions(def, inst)
	if len(actions) != 1 || actions[0].ID != "submit" {
		t.Errorf("PermittedActions() from draft = %v, want [submit]", actions)
	}

	inst.CurrentStateID = "review"
	actions = PermittedActions(def, inst)
	if len(actions) != 2 || actions[0].ID != "reject" || actions[1].ID != "publish" {
		t.Errorf("PermittedActions() from review = %v, want [reject publish]", actions)
	}

	inst.CurrentStateID = "published"
	if actions := PermittedActions(def, inst); len(actions) != 0 {
		t.Errorf("Final state should have 0 permitted actions, got %d", len(actions))
	}
}

func TestCanFire(t *testing.T) {
	def := articleDefinition(t)
	inst := newTestInstance(t, def)

	tests := []struct {
		actionID string
		expected bool
	}{
		{"submit", true},
		{"publish", false},
		{"archive", false},
		{"missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.actionID, func(t *testing.T) {
			if got := CanFire(def, inst, tt.actionID); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}
