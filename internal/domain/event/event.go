package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and subscribers
const (
	PayloadName       = "name"
	PayloadActionID   = "action_id"
	PayloadActionName = "action_name"
	PayloadFromState  = "from_state"
	PayloadToState    = "to_state"
	PayloadStateID    = "state_id"
)

// Event represents a domain event
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	DefinitionID  string                 `json:"definitionId"`
	InstanceID    string                 `json:"instanceId,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlationId"`
}

// NewEvent creates a new domain event stamped at the given time. The
// correlation id defaults to the instance id so every event of one instance
// shares a chain.
func NewEvent(eventType Type, definitionID, instanceID string, payload map[string]interface{}, at time.Time) *Event {
	correlationID := instanceID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		DefinitionID:  definitionID,
		InstanceID:    instanceID,
		Payload:       payload,
		Timestamp:     at,
		CorrelationID: correlationID,
	}
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	out := *e
	out.Payload = newPayload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
