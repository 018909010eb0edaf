package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

var _ ports.Store = (*Store)(nil)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "statecraft:"

// Store implements ports.Store using Redis.
//
// Entities are stored as JSON strings. Listing order is kept in one sorted set per
// entity kind, scored by a monotonic sequence so that overwrites keep their position.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) definitionKey(id string) string { return s.prefix + "definition:" + id }
func (s *Store) instanceKey(id string) string   { return s.prefix + "instance:" + id }
func (s *Store) definitionIndex() string        { return s.prefix + "definitions" }
func (s *Store) instanceIndex() string          { return s.prefix + "instances" }
func (s *Store) sequenceKey() string            { return s.prefix + "seq" }

// SaveDefinition persists the definition.
func (s *Store) SaveDefinition(ctx context.Context, def *domain.Definition) error {
	return s.save(ctx, s.definitionKey(def.ID), s.definitionIndex(), def.ID, def)
}

// GetDefinition retrieves a definition.
func (s *Store) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	var def domain.Definition
	if err := s.load(ctx, s.definitionKey(id), &def); err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrDefinitionNotFound
		}
		return nil, err
	}
	return &def, nil
}

// ListDefinitions returns all definitions in insertion order.
func (s *Store) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	return list[domain.Definition](ctx, s, s.definitionIndex(), s.definitionKey)
}

// SaveInstance persists the instance, replacing the previous version.
func (s *Store) SaveInstance(ctx context.Context, inst *domain.Instance) error {
	return s.save(ctx, s.instanceKey(inst.ID), s.instanceIndex(), inst.ID, inst)
}

// GetInstance retrieves an instance.
func (s *Store) GetInstance(ctx context.Context, id string) (*domain.Instance, error) {
	var inst domain.Instance
	if err := s.load(ctx, s.instanceKey(id), &inst); err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, err
	}
	if inst.History == nil {
		inst.History = []domain.HistoryEntry{}
	}
	return &inst, nil
}

// ListInstances returns all instances in insertion order.
func (s *Store) ListInstances(ctx context.Context) ([]*domain.Instance, error) {
	insts, err := list[domain.Instance](ctx, s, s.instanceIndex(), s.instanceKey)
	if err != nil {
		return nil, err
	}
	for _, inst := range insts {
		if inst.History == nil {
			inst.History = []domain.HistoryEntry{}
		}
	}
	return insts, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) save(ctx context.Context, key, index, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	seq, err := s.client.Incr(ctx, s.sequenceKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	// NX keeps the original score, so overwrites don't move the entry.
	pipe.ZAddNX(ctx, index, backend.Z{Score: float64(seq), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, dest any) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return backend.Nil
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func list[T any](ctx context.Context, s *Store, index string, key func(string) string) ([]*T, error) {
	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}

	out := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			// Index entry without a value; skip rather than fail the listing.
			continue
		}
		item := new(T)
		if err := json.Unmarshal([]byte(str), item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, item)
	}
	return out, nil
}
