package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/statecraft/internal/tracing"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/validation"
)

// CreateDefinition validates spec and stores it as a new definition.
// An invalid spec returns a *domain.ValidationError listing every broken rule
// and stores nothing.
func (e *Engine) CreateDefinition(ctx context.Context, spec domain.DefinitionSpec) (_ *domain.DefinitionView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "create_definition")
	defer func() { tracing.End(span, err) }()

	draft := &domain.Definition{
		ID:          e.newID(),
		Name:        spec.Name,
		Description: spec.Description,
		States:      spec.States,
		Actions:     spec.Actions,
		CreatedAt:   e.clock(),
	}
	// Detach from the caller's slices.
	def := draft.Clone()
	span.SetAttributes(tracing.AttrDefinitionID.String(def.ID))

	if err := validation.ValidateDefinition(def).Err(validation.DefinitionSummary); err != nil {
		e.logger.Debug("definition rejected", "name", def.Name, "err", err)
		return nil, err
	}

	if err := e.store.SaveDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to save definition %s: %w", def.ID, err)
	}

	e.logger.Info("definition created", "definition_id", def.ID, "name", def.Name)
	e.emitDefinitionCreated(ctx, def)

	view := domain.NewDefinitionView(def)
	return &view, nil
}
