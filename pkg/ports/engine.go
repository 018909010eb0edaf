package ports

import (
	"context"

	"github.com/aretw0/statecraft/pkg/domain"
)

// WorkflowEngine is the driving port consumed by transports (HTTP, MCP, CLI).
//
// Reads report a missing entity with ok == false; their error is reserved for
// store failures. Mutations return *domain.ValidationError, *domain.NotFoundError
// or *domain.InvalidStateError.
type WorkflowEngine interface {
	CreateDefinition(ctx context.Context, spec domain.DefinitionSpec) (*domain.DefinitionView, error)
	GetDefinition(ctx context.Context, id string) (*domain.DefinitionView, bool, error)
	ListDefinitions(ctx context.Context) ([]domain.DefinitionView, error)

	CreateInstance(ctx context.Context, definitionID string) (*domain.InstanceView, error)
	ExecuteAction(ctx context.Context, instanceID, actionID string) (*domain.InstanceView, error)
	GetInstance(ctx context.Context, id string) (*domain.InstanceView, bool, error)
	ListInstances(ctx context.Context) ([]domain.InstanceView, error)
	ListInstancesByDefinition(ctx context.Context, definitionID string) ([]domain.InstanceView, error)
}
