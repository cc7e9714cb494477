package workflow

import (
	"context"

	domainwf "github.com/garyjia/workflow-engine/internal/domain/workflow"
)

// Engine validates workflow definitions and drives their instances
type Engine interface {
	// CreateDefinition validates and stores a new definition
	CreateDefinition(ctx context.Context, name string, states []domainwf.State, actions []domainwf.Action) (*domainwf.Definition, error)

	// GetDefinition returns a stored definition or KindDefinitionNotFound
	GetDefinition(ctx context.Context, id string) (*domainwf.Definition, error)

	// ListDefinitions returns all definitions ordered by creation time
	ListDefinitions(ctx context.Context) ([]*domainwf.Definition, error)

	// StartInstance creates an instance on the definition's initial state
	StartInstance(ctx context.Context, definitionID string) (*domainwf.Instance, error)

	// GetInstance returns a stored instance or KindInstanceNotFound
	GetInstance(ctx context.Context, id string) (*domainwf.Instance, error)

	// ListInstances returns all instances ordered by creation time
	ListInstances(ctx context.Context) ([]*domainwf.Instance, error)

	// ExecuteAction fires an action on an instance. Executions on the same
	// instance are serialized.
	ExecuteAction(ctx context.Context, instanceID, actionID string) (*domainwf.Instance, error)

	// AvailableActions returns the actions that can fire from the instance's
	// current state
	AvailableActions(ctx context.Context, instanceID string) ([]domainwf.Action, error)
}
