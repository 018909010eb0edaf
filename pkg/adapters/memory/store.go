package memory

import (
	"context"
	"sync"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/ports"
)

var _ ports.Store = (*Store)(nil)

// Store implements ports.Store in memory.
// Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	definitions     map[string]*domain.Definition
	definitionOrder []string

	instances     map[string]*domain.Instance
	instanceOrder []string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]*domain.Definition),
		instances:   make(map[string]*domain.Instance),
	}
}

// SaveDefinition stores a deep copy of def.
func (s *Store) SaveDefinition(ctx context.Context, def *domain.Definition) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := def.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.definitions[def.ID]; !exists {
		s.definitionOrder = append(s.definitionOrder, def.ID)
	}
	s.definitions[def.ID] = copied
	return nil
}

// GetDefinition retrieves a copy of the definition.
func (s *Store) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}
	return def.Clone(), nil
}

// ListDefinitions returns copies of all definitions in insertion order.
func (s *Store) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]*domain.Definition, 0, len(s.definitionOrder))
	for _, id := range s.definitionOrder {
		defs = append(defs, s.definitions[id].Clone())
	}
	return defs, nil
}

// SaveInstance stores a deep copy of inst, replacing any previous version.
func (s *Store) SaveInstance(ctx context.Context, inst *domain.Instance) error {
	copied := inst.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.instances[inst.ID]; !exists {
		s.instanceOrder = append(s.instanceOrder, inst.ID)
	}
	s.instances[inst.ID] = copied
	return nil
}

// GetInstance retrieves a copy of the instance.
func (s *Store) GetInstance(ctx context.Context, id string) (*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	// Copy on read so callers can't mutate store state through the pointer
	return inst.Clone(), nil
}

// ListInstances returns copies of all instances in insertion order.
func (s *Store) ListInstances(ctx context.Context) ([]*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insts := make([]*domain.Instance, 0, len(s.instanceOrder))
	for _, id := range s.instanceOrder {
		insts = append(insts, s.instances[id].Clone())
	}
	return insts, nil
}
