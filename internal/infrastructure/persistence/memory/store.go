package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/domain/workflow"
)

// Store is a goroutine-safe implementation of DefinitionRepository and
// InstanceRepository backed by maps. Values are cloned on the way in and on
// the way out so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]*workflow.Definition
	instances   map[string]*workflow.Instance
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]*workflow.Definition),
		instances:   make(map[string]*workflow.Instance),
	}
}

var (
	_ port.DefinitionRepository = definitionView{}
	_ port.InstanceRepository   = (*Store)(nil)
	_ port.HealthChecker        = (*Store)(nil)
)

// Definitions returns the store viewed as a definition repository
func (s *Store) Definitions() port.DefinitionRepository {
	return definitionView{s}
}

// Instances returns the store viewed as an instance repository
func (s *Store) Instances() port.InstanceRepository {
	return s
}

// HealthCheck always succeeds
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// definitionView exposes the definition half of the store under the
// repository method names, which collide with the instance half.
type definitionView struct{ s *Store }

func (v definitionView) Create(ctx context.Context, def *workflow.Definition) error {
	return v.s.CreateDefinition(ctx, def)
}

func (v definitionView) GetByID(ctx context.Context, id string) (*workflow.Definition, error) {
	return v.s.GetDefinition(ctx, id)
}

func (v definitionView) List(ctx context.Context) ([]*workflow.Definition, error) {
	return v.s.ListDefinitions(ctx)
}

// CreateDefinition stores a copy of def
func (s *Store) CreateDefinition(ctx context.Context, def *workflow.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[def.ID]; ok {
		return port.ErrAlreadyExists
	}
	s.definitions[def.ID] = def.Clone()
	return nil
}

// GetDefinition returns a copy of the definition, or nil if absent
func (s *Store) GetDefinition(ctx context.Context, id string) (*workflow.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.definitions[id].Clone(), nil
}

// ListDefinitions returns copies of all definitions ordered by creation time
func (s *Store) ListDefinitions(ctx context.Context) ([]*workflow.Definition, error) {
	s.mu.RLock()
	result := make([]*workflow.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		result = append(result, def.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return createdBefore(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *Store) Create(ctx context.Context, inst *workflow.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; ok {
		return port.ErrAlreadyExists
	}
	s.instances[inst.ID] = inst.Clone()
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*workflow.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.instances[id].Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]*workflow.Instance, error) {
	s.mu.RLock()
	result := make([]*workflow.Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		result = append(result, inst.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return createdBefore(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *Store) RecordTransition(ctx context.Context, instanceID string, entry workflow.HistoryEntry) (*workflow.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok {
		return nil, workflow.NewInstanceNotFound(instanceID)
	}
	if inst.CurrentStateID != entry.FromState {
		return nil, port.ErrConcurrentModification
	}

	inst.Apply(entry)
	return inst.Clone(), nil
}

func createdBefore(a time.Time, aID string, b time.Time, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}
