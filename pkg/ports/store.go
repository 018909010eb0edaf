package ports

import (
	"context"

	"github.com/aretw0/statecraft/pkg/domain"
)

// DefinitionStore persists workflow definitions.
type DefinitionStore interface {
	// SaveDefinition persists a definition under its ID.
	SaveDefinition(ctx context.Context, def *domain.Definition) error

	// GetDefinition retrieves a definition by ID.
	// Returns domain.ErrDefinitionNotFound if it does not exist.
	GetDefinition(ctx context.Context, id string) (*domain.Definition, error)

	// ListDefinitions returns every definition in insertion order.
	ListDefinitions(ctx context.Context) ([]*domain.Definition, error)
}

// InstanceStore persists workflow instances.
type InstanceStore interface {
	// SaveInstance persists an instance, overwriting any previous copy with the same ID.
	// An overwrite keeps the instance's original position in the listing order.
	SaveInstance(ctx context.Context, inst *domain.Instance) error

	// GetInstance retrieves an instance by ID.
	// Returns domain.ErrInstanceNotFound if it does not exist.
	GetInstance(ctx context.Context, id string) (*domain.Instance, error)

	// ListInstances returns every instance in insertion order.
	ListInstances(ctx context.Context) ([]*domain.Instance, error)
}

// Store is the persistence port consumed by the engine.
// Implementations must be safe for concurrent use and must not share memory with callers:
// mutating a value after Save, or a value returned by Get, never changes stored data.
type Store interface {
	DefinitionStore
	InstanceStore
}
