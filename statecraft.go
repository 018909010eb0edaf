package statecraft

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/statecraft/internal/runtime"
	"github.com/aretw0/statecraft/pkg/adapters/file"
	"github.com/aretw0/statecraft/pkg/adapters/memory"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/lock"
	"github.com/aretw0/statecraft/pkg/ports"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point for the statecraft library.
// It wraps the internal runtime and owns its collaborators.
type Engine struct {
	*runtime.Engine

	store  ports.Store
	logger *slog.Logger
}

type options struct {
	store       ports.Store
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*options)

// WithStore sets the persistence backend (default: in-memory).
func WithStore(s ports.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithDistributedLocker serializes executions across processes sharing a store.
func WithDistributedLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = l
		o.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithTracer sets the OpenTelemetry tracer for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithTracer(tracer))
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithClock(clock))
	}
}

// WithIDGenerator overrides how IDs are generated (default: UUID v4).
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithIDGenerator(gen))
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		o.store = memory.NewStore()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	lockOpts := []lock.Option{lock.WithLogger(o.logger)}
	if o.locker != nil {
		lockOpts = append(lockOpts, lock.WithLocker(o.locker), lock.WithTTL(o.lockTTL))
	}
	runtimeOpts := append([]runtime.EngineOption{
		runtime.WithLogger(o.logger),
		runtime.WithLockManager(lock.NewManager(lockOpts...)),
	}, o.runtimeOpts...)

	return &Engine{
		Engine: runtime.NewEngine(o.store, runtimeOpts...),
		store:  o.store,
		logger: o.logger,
	}
}

// Store returns the persistence backend.
func (e *Engine) Store() ports.Store {
	return e.store
}

// LoadDefinitions creates a definition for every YAML/JSON document in dir,
// in file name order. It stops at the first document that fails to decode or validate.
func (e *Engine) LoadDefinitions(ctx context.Context, dir string) ([]domain.DefinitionView, error) {
	docs, err := file.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	views := make([]domain.DefinitionView, 0, len(docs))
	for _, doc := range docs {
		view, err := e.CreateDefinition(ctx, doc.Spec)
		if err != nil {
			return views, fmt.Errorf("%s: %w", doc.Path, err)
		}
		e.logger.Info("definition loaded", "path", doc.Path, "definition_id", view.ID)
		views = append(views, *view)
	}
	return views, nil
}
