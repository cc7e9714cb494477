package port

import (
	"context"
	"errors"

	"github.com/garyjia/workflow-engine/internal/domain/workflow"
)

var (
	// ErrAlreadyExists is returned when inserting an id that is already stored
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConcurrentModification is returned by RecordTransition when the
	// instance is no longer on the entry's source state
	ErrConcurrentModification = errors.New("instance was modified concurrently")
)

// DefinitionRepository defines persistence operations for workflow definitions.
// Definitions are insert-only. GetByID returns (nil, nil) when the id is unknown.
type DefinitionRepository interface {
	Create(ctx context.Context, def *workflow.Definition) error
	GetByID(ctx context.Context, id string) (*workflow.Definition, error)
	// List returns all definitions ordered by creation time, then id
	List(ctx context.Context) ([]*workflow.Definition, error)
}

// InstanceRepository defines persistence operations for workflow instances.
// GetByID returns (nil, nil) when the id is unknown.
type InstanceRepository interface {
	Create(ctx context.Context, inst *workflow.Instance) error
	GetByID(ctx context.Context, id string) (*workflow.Instance, error)
	// List returns all instances ordered by creation time, then id
	List(ctx context.Context) ([]*workflow.Instance, error)

	// RecordTransition appends entry to the instance history and moves the
	// instance to entry.ToState in one atomic step. It fails with
	// ErrConcurrentModification if the stored current state is not
	// entry.FromState, and returns the updated instance on success.
	RecordTransition(ctx context.Context, instanceID string, entry workflow.HistoryEntry) (*workflow.Instance, error)
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
