package http

import (
	"time"

	domainwf "github.com/garyjia/workflow-engine/internal/domain/workflow"
)

// CreateWorkflowRequest is the body of POST /api/workflows. The three keys
// must be present; their contents are checked by the engine.
type CreateWorkflowRequest struct {
	Name    *string         `json:"name" validate:"required"`
	States  []StateRequest  `json:"states" validate:"required"`
	Actions []ActionRequest `json:"actions" validate:"required"`
}

// StateRequest describes one state. Enabled defaults to true when omitted.
type StateRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsInitial   bool   `json:"isInitial"`
	IsFinal     bool   `json:"isFinal"`
	Enabled     *bool  `json:"enabled"`
	Description string `json:"description"`
}

// ActionRequest describes one action. Enabled defaults to true when omitted.
type ActionRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Enabled     *bool    `json:"enabled"`
	FromStates  []string `json:"fromStates"`
	ToState     string   `json:"toState"`
	Description string   `json:"description"`
}

// StateResponse represents a state in API responses
type StateResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsInitial   bool   `json:"isInitial"`
	IsFinal     bool   `json:"isFinal"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// ActionResponse represents an action in API responses
type ActionResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	FromStates  []string `json:"fromStates"`
	ToState     string   `json:"toState"`
	Description string   `json:"description,omitempty"`
}

// DefinitionResponse represents a workflow definition in API responses
type DefinitionResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	States    []StateResponse  `json:"states"`
	Actions   []ActionResponse `json:"actions"`
	CreatedAt time.Time        `json:"createdAt"`
}

// HistoryEntryResponse represents one executed transition
type HistoryEntryResponse struct {
	ActionID   string    `json:"actionId"`
	ActionName string    `json:"actionName"`
	FromState  string    `json:"fromState"`
	ToState    string    `json:"toState"`
	ExecutedAt time.Time `json:"executedAt"`
}

// InstanceResponse represents a workflow instance in API responses
type InstanceResponse struct {
	ID             string                 `json:"id"`
	DefinitionID   string                 `json:"definitionId"`
	CurrentStateID string                 `json:"currentStateId"`
	History        []HistoryEntryResponse `json:"history"`
	CreatedAt      time.Time              `json:"createdAt"`
	LastModifiedAt time.Time              `json:"lastModifiedAt"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

func enabledOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func (r CreateWorkflowRequest) toDomain() (string, []domainwf.State, []domainwf.Action) {
	states := make([]domainwf.State, len(r.States))
	for i, s := range r.States {
		states[i] = domainwf.State{
			ID:          s.ID,
			Name:        s.Name,
			IsInitial:   s.IsInitial,
			IsFinal:     s.IsFinal,
			Enabled:     enabledOrDefault(s.Enabled),
			Description: s.Description,
		}
	}

	actions := make([]domainwf.Action, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = domainwf.Action{
			ID:          a.ID,
			Name:        a.Name,
			Enabled:     enabledOrDefault(a.Enabled),
			FromStates:  a.FromStates,
			ToState:     a.ToState,
			Description: a.Description,
		}
	}

	return *r.Name, states, actions
}

func toActionResponse(a domainwf.Action) ActionResponse {
	from := a.FromStates
	if from == nil {
		from = []string{}
	}
	return ActionResponse{
		ID:          a.ID,
		Name:        a.Name,
		Enabled:     a.Enabled,
		FromStates:  from,
		ToState:     a.ToState,
		Description: a.Description,
	}
}

func toActionResponses(actions []domainwf.Action) []ActionResponse {
	out := make([]ActionResponse, len(actions))
	for i, a := range actions {
		out[i] = toActionResponse(a)
	}
	return out
}

func toDefinitionResponse(def *domainwf.Definition) DefinitionResponse {
	states := make([]StateResponse, len(def.States))
	for i, s := range def.States {
		states[i] = StateResponse{
			ID:          s.ID,
			Name:        s.Name,
			IsInitial:   s.IsInitial,
			IsFinal:     s.IsFinal,
			Enabled:     s.Enabled,
			Description: s.Description,
		}
	}

	return DefinitionResponse{
		ID:        def.ID,
		Name:      def.Name,
		States:    states,
		Actions:   toActionResponses(def.Actions),
		CreatedAt: def.CreatedAt,
	}
}

func toInstanceResponse(inst *domainwf.Instance) InstanceResponse {
	history := make([]HistoryEntryResponse, len(inst.History))
	for i, h := range inst.History {
		history[i] = HistoryEntryResponse{
			ActionID:   h.ActionID,
			ActionName: h.ActionName,
			FromState:  h.FromState,
			ToState:    h.ToState,
			ExecutedAt: h.ExecutedAt,
		}
	}

	return InstanceResponse{
		ID:             inst.ID,
		DefinitionID:   inst.DefinitionID,
		CurrentStateID: inst.CurrentStateID,
		History:        history,
		CreatedAt:      inst.CreatedAt,
		LastModifiedAt: inst.LastModifiedAt,
	}
}
