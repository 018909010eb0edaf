package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/statecraft/internal/tracing"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/lock"
	"github.com/aretw0/statecraft/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Engine owns the workflow operations. All state lives in the Store.
type Engine struct {
	store  ports.Store
	locks  *lock.Manager
	clock  func() time.Time
	newID  func() string
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	tracer trace.Tracer
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator overrides how definition and instance IDs are generated.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once merges the hooks in call order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithTracer sets the OpenTelemetry tracer used for operation spans.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithLockManager sets the manager that serializes executions per instance.
func WithLockManager(m *lock.Manager) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.locks = m
		}
	}
}

// NewEngine creates an engine backed by store.
func NewEngine(store ports.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		clock:  func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: tracing.Tracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = lock.NewManager(lock.WithLogger(e.logger))
	}
	return e
}

// GetDefinition returns the definition with id. ok is false when it does not exist.
// err reports store failures only.
func (e *Engine) GetDefinition(ctx context.Context, id string) (_ *domain.DefinitionView, ok bool, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "get_definition", tracing.AttrDefinitionID.String(id))
	defer func() { tracing.End(span, err) }()

	def, err := e.lookupDefinition(ctx, id)
	if err != nil || def == nil {
		return nil, false, err
	}
	view := domain.NewDefinitionView(def)
	return &view, true, nil
}

// ListDefinitions returns every definition in insertion order.
func (e *Engine) ListDefinitions(ctx context.Context) (_ []domain.DefinitionView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "list_definitions")
	defer func() { tracing.End(span, err) }()

	defs, err := e.store.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	views := make([]domain.DefinitionView, 0, len(defs))
	for _, d := range defs {
		views = append(views, domain.NewDefinitionView(d))
	}
	return views, nil
}

// GetInstance returns the instance with id. ok is false when it does not exist.
// A missing definition does not fail the read; the state name becomes domain.UnknownStateName.
func (e *Engine) GetInstance(ctx context.Context, id string) (_ *domain.InstanceView, ok bool, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "get_instance", tracing.AttrInstanceID.String(id))
	defer func() { tracing.End(span, err) }()

	inst, err := e.lookupInstance(ctx, id)
	if err != nil || inst == nil {
		return nil, false, err
	}
	def, err := e.lookupDefinition(ctx, inst.DefinitionID)
	if err != nil {
		return nil, false, err
	}
	view := domain.NewInstanceView(inst, def)
	return &view, true, nil
}

// ListInstances returns every instance in insertion order.
func (e *Engine) ListInstances(ctx context.Context) (_ []domain.InstanceView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "list_instances")
	defer func() { tracing.End(span, err) }()

	return e.listInstances(ctx, func(*domain.Instance) bool { return true })
}

// ListInstancesByDefinition returns the instances of one definition in insertion order.
func (e *Engine) ListInstancesByDefinition(ctx context.Context, definitionID string) (_ []domain.InstanceView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "list_instances", tracing.AttrDefinitionID.String(definitionID))
	defer func() { tracing.End(span, err) }()

	return e.listInstances(ctx, func(i *domain.Instance) bool { return i.DefinitionID == definitionID })
}

func (e *Engine) listInstances(ctx context.Context, keep func(*domain.Instance) bool) ([]domain.InstanceView, error) {
	insts, err := e.store.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	// Definitions are shared by many instances; resolve each once.
	defs := make(map[string]*domain.Definition)
	views := make([]domain.InstanceView, 0, len(insts))
	for _, inst := range insts {
		if !keep(inst) {
			continue
		}
		def, seen := defs[inst.DefinitionID]
		if !seen {
			def, err = e.lookupDefinition(ctx, inst.DefinitionID)
			if err != nil {
				return nil, err
			}
			defs[inst.DefinitionID] = def
		}
		views = append(views, domain.NewInstanceView(inst, def))
	}
	return views, nil
}

// lookupDefinition returns (nil, nil) when the definition does not exist.
func (e *Engine) lookupDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	def, err := e.store.GetDefinition(ctx, id)
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load definition %s: %w", id, err)
	}
	return def, nil
}

// lookupInstance returns (nil, nil) when the instance does not exist.
func (e *Engine) lookupInstance(ctx context.Context, id string) (*domain.Instance, error) {
	inst, err := e.store.GetInstance(ctx, id)
	if errors.Is(err, domain.ErrInstanceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load instance %s: %w", id, err)
	}
	return inst, nil
}

var _ ports.WorkflowEngine = (*Engine)(nil)
