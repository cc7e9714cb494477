package workflow

import "time"

// Fire decides whether actionID may fire on inst and, if so, returns the
// history entry describing the transition. It does not mutate inst; pass the
// entry to Instance.Apply (or a store) to commit it.
//
// Checks run in this order and the first failure wins:
//
//  1. action exists on the definition          KindActionNotFound
//  2. current state exists on the definition   KindCurrentStateNotFound
//  3. action is enabled                        KindActionDisabled
//  4. current state is not final               KindTerminalState
//  5. action lists the current state as source KindInvalidSourceState
//  6. target state exists on the definition    KindTargetStateNotFound
//
// State.Enabled is never consulted.
func Fire(def *Definition, inst *Instance, actionID string, now time.Time) (HistoryEntry, error) {
	action, ok := def.Action(actionID)
	if !ok {
		return HistoryEntry{}, newActionNotFound(def, actionID)
	}

	current, ok := def.State(inst.CurrentStateID)
	if !ok {
		return HistoryEntry{}, newCurrentStateNotFound(inst)
	}

	if !action.Enabled {
		return HistoryEntry{}, newActionDisabled(inst, actionID)
	}

	if current.IsFinal {
		return HistoryEntry{}, newTerminalState(inst, actionID)
	}

	if !action.PermitsFrom(current.ID) {
		return HistoryEntry{}, newInvalidSourceState(inst, actionID)
	}

	if _, ok := def.State(action.ToState); !ok {
		return HistoryEntry{}, newTargetStateNotFound(inst, action)
	}

	return HistoryEntry{
		ActionID:   action.ID,
		ActionName: action.Name,
		FromState:  current.ID,
		ToState:    action.ToState,
		ExecutedAt: now,
	}, nil
}

// CanFire returns true if Fire would succeed for actionID
func CanFire(def *Definition, inst *Instance, actionID string) bool {
	_, err := Fire(def, inst, actionID, time.Time{})
	return err == nil
}

// PermittedActions returns the actions that can fire from the instance's
// current state, in definition order
func PermittedActions(def *Definition, inst *Instance) []Action {
	actions := make([]Action, 0)
	for _, a := range def.Actions {
		if CanFire(def, inst, a.ID) {
			actions = append(actions, a.clone())
		}
	}
	return actions
}
