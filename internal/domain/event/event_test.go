package event

import (
	"testing"
	"time"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"definition created", TypeDefinitionCreated, true},
		{"instance started", TypeInstanceStarted, true},
		{"action executed", TypeActionExecuted, true},
		{"unknown type", Type("unknown.type"), false},
		{"empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}

	for _, typ := range All() {
		if !typ.IsValid() {
			t.Errorf("All() returned invalid type %v", typ)
		}
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		PayloadActionID: "submit",
		PayloadToState:  "review",
	}

	evt := NewEvent(TypeActionExecuted, "def-1", "inst-1", payload, testTime)

	if evt.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if evt.Type != TypeActionExecuted {
		t.Errorf("Event Type = %v, want %v", evt.Type, TypeActionExecuted)
	}
	if evt.DefinitionID != "def-1" || evt.InstanceID != "inst-1" {
		t.Errorf("Event ids = %v/%v, want def-1/inst-1", evt.DefinitionID, evt.InstanceID)
	}
	if !evt.Timestamp.Equal(testTime) {
		t.Errorf("Event Timestamp = %v, want %v", evt.Timestamp, testTime)
	}
	if evt.CorrelationID != "inst-1" {
		t.Errorf("Event CorrelationID = %v, want inst-1", evt.CorrelationID)
	}
	if evt.GetPayloadString(PayloadToState) != "review" {
		t.Errorf("Payload[%v] = %v, want review", PayloadToState, evt.Payload[PayloadToState])
	}
}

func TestNewEvent_DefinitionOnlyGetsOwnCorrelation(t *testing.T) {
	evt := NewEvent(TypeDefinitionCreated, "def-1", "", nil, testTime)

	if evt.CorrelationID == "" {
		t.Fatal("Event CorrelationID should not be empty")
	}
	if evt.CorrelationID == evt.ID {
		t.Error("CorrelationID and ID should be generated independently")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeInstanceStarted, "def-1", "inst-1", map[string]interface{}{
		PayloadStateID: "draft",
	}, testTime)

	modified := original.WithPayload(PayloadName, "Article")

	if _, exists := original.Payload[PayloadName]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.GetPayloadString(PayloadStateID) != "draft" {
		t.Error("Modified event should retain original payload")
	}
	if modified.GetPayloadString(PayloadName) != "Article" {
		t.Error("Modified event should have new payload")
	}
	if modified.ID != original.ID || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep identity fields")
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	evt := NewEvent(TypeActionExecuted, "def-1", "inst-1", map[string]interface{}{
		"status": "ok",
		"number": 123,
	}, testTime)

	tests := []struct {
		key  string
		want string
	}{
		{"status", "ok"},
		{"number", ""},
		{"nonexistent", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := evt.GetPayloadString(tt.key); got != tt.want {
				t.Errorf("GetPayloadString(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := NewEvent(TypeActionExecuted, "def-1", "inst-1", nil, testTime)
		if ids[evt.ID] {
			t.Errorf("Duplicate event ID found: %s", evt.ID)
		}
		ids[evt.ID] = true
	}
}
