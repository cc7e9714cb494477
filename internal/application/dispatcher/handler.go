package dispatcher

import (
	"context"

	"github.com/garyjia/workflow-engine/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// AuditHandler returns a handler that writes every event it receives to the
// logger as an audit line.
func AuditHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		fields := []interface{}{
			"event_type", evt.Type,
			"event_id", evt.ID,
			"definition_id", evt.DefinitionID,
			"correlation_id", evt.CorrelationID,
		}
		if evt.InstanceID != "" {
			fields = append(fields, "instance_id", evt.InstanceID)
		}
		for k, v := range evt.Payload {
			fields = append(fields, k, v)
		}

		logger.Info("Workflow audit", fields...)
		return nil
	}
}
