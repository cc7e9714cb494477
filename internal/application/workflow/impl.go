package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/workflow-engine/internal/application/dispatcher"
	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/domain/event"
	domainwf "github.com/garyjia/workflow-engine/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	definitions port.DefinitionRepository
	instances   port.InstanceRepository
	dispatcher  dispatcher.Dispatcher
	logger      Logger

	clock func() time.Time
	newID func() string

	locksMu sync.Mutex
	locks   map[string]*instanceLock
}

// instanceLock serializes executes on one instance. The entry lives only
// while refs > 0.
type instanceLock struct {
	mu   sync.Mutex
	refs int
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the logger used for rejected operations and invariant violations
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithClock replaces the time source
func WithClock(clock func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.clock = clock
	}
}

// WithIDGenerator replaces the id source for definitions and instances
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *engineImpl) {
		e.newID = newID
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	definitions port.DefinitionRepository,
	instances port.InstanceRepository,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		definitions: definitions,
		instances:   instances,
		logger:      nopLogger{},
		clock:       func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		locks:       make(map[string]*instanceLock),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) CreateDefinition(ctx context.Context, name string, states []domainwf.State, actions []domainwf.Action) (*domainwf.Definition, error) {
	def, err := domainwf.NewDefinition(e.newID(), name, states, actions, e.clock())
	if err != nil {
		e.logger.Info("Definition rejected", "name", name, "kind", kindString(err), "error", err)
		return nil, err
	}

	if err := e.definitions.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to store definition: %w", err)
	}

	e.publish(ctx, event.NewEvent(event.TypeDefinitionCreated, def.ID, "", map[string]interface{}{
		event.PayloadName: def.Name,
	}, def.CreatedAt))

	return def, nil
}

func (e *engineImpl) GetDefinition(ctx context.Context, id string) (*domainwf.Definition, error) {
	def, err := e.definitions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition: %w", err)
	}
	if def == nil {
		return nil, domainwf.NewDefinitionNotFound(id)
	}
	return def, nil
}

func (e *engineImpl) ListDefinitions(ctx context.Context) ([]*domainwf.Definition, error) {
	defs, err := e.definitions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	return defs, nil
}

func (e *engineImpl) StartInstance(ctx context.Context, definitionID string) (*domainwf.Instance, error) {
	def, err := e.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	inst, err := domainwf.NewInstance(e.newID(), def, e.clock())
	if err != nil {
		e.reportInvariant(err, "definition_id", definitionID)
		return nil, err
	}

	if err := e.instances.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to store instance: %w", err)
	}

	e.publish(ctx, event.NewEvent(event.TypeInstanceStarted, def.ID, inst.ID, map[string]interface{}{
		event.PayloadStateID: inst.CurrentStateID,
	}, inst.CreatedAt))

	return inst, nil
}

func (e *engineImpl) GetInstance(ctx context.Context, id string) (*domainwf.Instance, error) {
	inst, err := e.instances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instance: %w", err)
	}
	if inst == nil {
		return nil, domainwf.NewInstanceNotFound(id)
	}
	return inst, nil
}

func (e *engineImpl) ListInstances(ctx context.Context) ([]*domainwf.Instance, error) {
	insts, err := e.instances.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return insts, nil
}

func (e *engineImpl) ExecuteAction(ctx context.Context, instanceID, actionID string) (*domainwf.Instance, error) {
	unlock := e.lock(instanceID)
	defer unlock()

	inst, def, err := e.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	entry, err := domainwf.Fire(def, inst, actionID, e.clock())
	if err != nil {
		if !e.reportInvariant(err, "instance_id", instanceID, "action_id", actionID) {
			e.logger.Info("Action rejected",
				"instance_id", instanceID,
				"action_id", actionID,
				"current_state", inst.CurrentStateID,
				"kind", kindString(err),
			)
		}
		return nil, err
	}

	updated, err := e.instances.RecordTransition(ctx, instanceID, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	e.publish(ctx, event.NewEvent(event.TypeActionExecuted, def.ID, instanceID, map[string]interface{}{
		event.PayloadActionID:   entry.ActionID,
		event.PayloadActionName: entry.ActionName,
		event.PayloadFromState:  entry.FromState,
		event.PayloadToState:    entry.ToState,
	}, entry.ExecutedAt))

	return updated, nil
}

func (e *engineImpl) AvailableActions(ctx context.Context, instanceID string) ([]domainwf.Action, error) {
	inst, def, err := e.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return domainwf.PermittedActions(def, inst), nil
}

// load fetches an instance and the definition it references
func (e *engineImpl) load(ctx context.Context, instanceID string) (*domainwf.Instance, *domainwf.Definition, error) {
	inst, err := e.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}

	def, err := e.GetDefinition(ctx, inst.DefinitionID)
	if err != nil {
		return nil, nil, err
	}
	return inst, def, nil
}

// lock acquires the mutex for one instance and returns its release func.
// The last release removes the entry, so unknown ids leave nothing behind.
func (e *engineImpl) lock(instanceID string) func() {
	e.locksMu.Lock()
	l, ok := e.locks[instanceID]
	if !ok {
		l = &instanceLock{}
		e.locks[instanceID] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, instanceID)
		}
		e.locksMu.Unlock()
	}
}

func (e *engineImpl) heldLocks() int {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	return len(e.locks)
}

// reportInvariant logs err at error level if it signals corrupted stored
// data and reports whether it did
func (e *engineImpl) reportInvariant(err error, keysAndValues ...interface{}) bool {
	if !domainwf.IsInvariantViolation(err) {
		return false
	}
	fields := append([]interface{}{"invariant_violation", true, "kind", kindString(err), "error", err}, keysAndValues...)
	e.logger.Error("Workflow invariant violated", fields...)
	return true
}

func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}

func kindString(err error) string {
	kind, _ := domainwf.KindOf(err)
	return kind.String()
}
