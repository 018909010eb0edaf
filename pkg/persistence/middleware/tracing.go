package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/statecraft/internal/tracing"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttrCount is set on list spans to the number of records returned.
const AttrCount = attribute.Key("statecraft.store.count")

type tracingMiddleware struct {
	next   ports.Store
	tracer trace.Tracer
}

// NewTracingMiddleware records a span per store call.
// A missing record is reported as a normal outcome, not a span error.
func NewTracingMiddleware(tracer trace.Tracer) Middleware {
	return func(next ports.Store) ports.Store {
		return &tracingMiddleware{next: next, tracer: tracer}
	}
}

func (m *tracingMiddleware) SaveDefinition(ctx context.Context, def *domain.Definition) (err error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.save_definition", tracing.AttrDefinitionID.String(def.ID))
	defer func() { tracing.End(span, err) }()
	return m.next.SaveDefinition(ctx, def)
}

func (m *tracingMiddleware) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.get_definition", tracing.AttrDefinitionID.String(id))
	def, err := m.next.GetDefinition(ctx, id)
	tracing.End(span, unlessNotFound(err))
	return def, err
}

func (m *tracingMiddleware) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.list_definitions")
	defs, err := m.next.ListDefinitions(ctx)
	span.SetAttributes(AttrCount.Int(len(defs)))
	tracing.End(span, err)
	return defs, err
}

func (m *tracingMiddleware) SaveInstance(ctx context.Context, inst *domain.Instance) (err error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.save_instance",
		tracing.AttrInstanceID.String(inst.ID),
		tracing.AttrDefinitionID.String(inst.DefinitionID),
	)
	defer func() { tracing.End(span, err) }()
	return m.next.SaveInstance(ctx, inst)
}

func (m *tracingMiddleware) GetInstance(ctx context.Context, id string) (*domain.Instance, error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.get_instance", tracing.AttrInstanceID.String(id))
	inst, err := m.next.GetInstance(ctx, id)
	tracing.End(span, unlessNotFound(err))
	return inst, err
}

func (m *tracingMiddleware) ListInstances(ctx context.Context) ([]*domain.Instance, error) {
	ctx, span := tracing.Start(ctx, m.tracer, "store.list_instances")
	insts, err := m.next.ListInstances(ctx)
	span.SetAttributes(AttrCount.Int(len(insts)))
	tracing.End(span, err)
	return insts, err
}

func unlessNotFound(err error) error {
	if errors.Is(err, domain.ErrDefinitionNotFound) || errors.Is(err, domain.ErrInstanceNotFound) {
		return nil
	}
	return err
}
