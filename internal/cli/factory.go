package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/statecraft"
	"github.com/aretw0/statecraft/internal/config"
	"github.com/aretw0/statecraft/internal/logging"
	"github.com/aretw0/statecraft/internal/tracing"
	"github.com/aretw0/statecraft/pkg/adapters/file"
	httpadapter "github.com/aretw0/statecraft/pkg/adapters/http"
	"github.com/aretw0/statecraft/pkg/adapters/memory"
	"github.com/aretw0/statecraft/pkg/adapters/redis"
	"github.com/aretw0/statecraft/pkg/observability"
	"github.com/aretw0/statecraft/pkg/persistence/middleware"
	"github.com/aretw0/statecraft/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Runtime is an engine assembled from configuration together with the
// resources it owns.
type Runtime struct {
	Engine  *statecraft.Engine
	Streams *httpadapter.StreamManager
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry

	closers []func(context.Context) error
}

// Close releases the store connection and flushes traces, in reverse order of acquisition.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i](ctx))
	}
	r.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the application logger from the log settings. It writes to stderr.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, logging.Format(cfg.Format)), nil
}

// Build creates the engine described by cfg: store driver, optional distributed
// locking, metrics, tracing and seed definitions.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Runtime, err error) {
	rt := &Runtime{Streams: httpadapter.NewStreamManager(logger)}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	opts := []statecraft.Option{
		statecraft.WithLogger(logger),
		statecraft.WithLifecycleHooks(observability.LoggingHooks(logger)),
		statecraft.WithLifecycleHooks(rt.Streams.Hooks()),
	}

	store, err := openStore(ctx, cfg, rt)
	if err != nil {
		return nil, err
	}

	if cfg.Lock.Distributed {
		rs, ok := store.(*redis.Store)
		if !ok {
			return nil, config.ErrDistributedLockStore
		}
		opts = append(opts, statecraft.WithDistributedLocker(redis.NewLocker(rs.Client(), cfg.Store.Redis.Prefix), cfg.Lock.TTL))
	}

	if cfg.Metrics.Enabled {
		rt.Registry = prometheus.NewRegistry()
		rt.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(rt.Registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, statecraft.WithLifecycleHooks(metrics.Hooks()))
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup("statecraft", strings.TrimSpace(statecraft.Version), cfg.Tracing.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
		rt.closers = append(rt.closers, shutdown)
		opts = append(opts, statecraft.WithTracer(tracing.Tracer()))
		store = middleware.Chain(store, middleware.NewTracingMiddleware(tracing.Tracer()))
	}
	opts = append(opts, statecraft.WithStore(store))

	rt.Engine = statecraft.New(opts...)

	if cfg.Seed.Dir != "" {
		views, err := rt.Engine.LoadDefinitions(ctx, cfg.Seed.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to seed definitions: %w", err)
		}
		logger.Info("seed definitions loaded", "dir", cfg.Seed.Dir, "count", len(views))
	}

	return rt, nil
}

func openStore(ctx context.Context, cfg *config.Config, rt *Runtime) (ports.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory, "":
		return memory.NewStore(), nil
	case config.DriverFile:
		return file.NewStore(cfg.Store.File.Dir), nil
	case config.DriverRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix))
		rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStoreDriver, cfg.Store.Driver)
	}
}
