package file

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/ports"
)

var _ ports.Store = (*Store)(nil)

const (
	definitionsDir = "definitions"
	instancesDir   = "instances"
)

// record wraps a stored entity with its insertion sequence number.
type record[T any] struct {
	Seq  int64 `json:"seq"`
	Data *T    `json:"data"`
}

// Store implements ports.Store using the local filesystem.
// Entities are written atomically (temp file, fsync, rename).
// Safe for concurrent use within one process.
type Store struct {
	BasePath string

	mu     sync.Mutex
	seq    int64
	loaded bool
}

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".statecraft".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = ".statecraft"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) SaveDefinition(ctx context.Context, def *domain.Definition) error {
	return save(s, definitionsDir, def.ID, def.Clone())
}

func (s *Store) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	return get[domain.Definition](s, definitionsDir, id, domain.ErrDefinitionNotFound)
}

func (s *Store) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	return list[domain.Definition](s, definitionsDir)
}

func (s *Store) SaveInstance(ctx context.Context, inst *domain.Instance) error {
	return save(s, instancesDir, inst.ID, inst.Clone())
}

func (s *Store) GetInstance(ctx context.Context, id string) (*domain.Instance, error) {
	inst, err := get[domain.Instance](s, instancesDir, id, domain.ErrInstanceNotFound)
	if err != nil {
		return nil, err
	}
	return inst.Clone(), nil
}

func (s *Store) ListInstances(ctx context.Context) ([]*domain.Instance, error) {
	insts, err := list[domain.Instance](s, instancesDir)
	if err != nil {
		return nil, err
	}
	for i, inst := range insts {
		insts[i] = inst.Clone()
	}
	return insts, nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func save[T any](s *Store, kind, id string, v *T) error {
	if !validID(id) {
		return fmt.Errorf("invalid %s id %q", kind, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.BasePath, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure %s directory: %w", kind, err)
	}
	if err := s.ensureSeq(); err != nil {
		return err
	}

	path := filepath.Join(dir, id+".json")
	rec := record[T]{Data: v}
	// Overwrites keep their original position.
	if prev, err := readRecord[T](path); err == nil {
		rec.Seq = prev.Seq
	} else if errors.Is(err, os.ErrNotExist) {
		s.seq++
		rec.Seq = s.seq
	} else {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}
	return writeAtomic(dir, id, path, data)
}

func get[T any](s *Store, kind, id string, notFound error) (*T, error) {
	if !validID(id) {
		return nil, notFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := readRecord[T](filepath.Join(s.BasePath, kind, id+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

func list[T any](s *Store, kind string) ([]*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readAll[T](filepath.Join(s.BasePath, kind))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(recs, func(a, b record[T]) int { return cmp.Compare(a.Seq, b.Seq) })

	out := make([]*T, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Data)
	}
	return out, nil
}

// ensureSeq restores the sequence counter from disk on first write.
func (s *Store) ensureSeq() error {
	if s.loaded {
		return nil
	}
	for _, kind := range []string{definitionsDir, instancesDir} {
		recs, err := readAll[json.RawMessage](filepath.Join(s.BasePath, kind))
		if err != nil {
			return err
		}
		for _, r := range recs {
			s.seq = max(s.seq, r.Seq)
		}
	}
	s.loaded = true
	return nil
}

func readRecord[T any](path string) (record[T], error) {
	var rec record[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return rec, nil
}

func readAll[T any](dir string) ([]record[T], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var recs []record[T]
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		rec, err := readRecord[T](filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// writeAtomic writes to a temp file in dir, syncs it and renames it over path.
func writeAtomic(dir, id, path string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
