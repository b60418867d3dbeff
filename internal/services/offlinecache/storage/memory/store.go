// Package memory keeps cache generations in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
)

type generation struct {
	record  storage.GenerationRecord
	seq     int
	entries map[string]storage.EntryRecord
}

// Store is a mutex-guarded in-memory cache store.
type Store struct {
	mu          sync.RWMutex
	generations map[string]*generation
	seq         int
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{generations: make(map[string]*generation), now: time.Now}
}

func (s *Store) CreateGeneration(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("generation name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[name]; ok {
		return nil
	}
	s.seq++
	s.generations[name] = &generation{
		record:  storage.GenerationRecord{Name: name, CreatedAt: s.now().UTC()},
		seq:     s.seq,
		entries: make(map[string]storage.EntryRecord),
	}
	return nil
}

func (s *Store) HasGeneration(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.generations[strings.TrimSpace(name)]
	return ok, nil
}

func (s *Store) ListGenerations(ctx context.Context) ([]storage.GenerationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ordered := make([]*generation, 0, len(s.generations))
	for _, gen := range s.generations {
		ordered = append(ordered, gen)
	}
	s.mu.RUnlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	records := make([]storage.GenerationRecord, 0, len(ordered))
	for _, gen := range ordered {
		records = append(records, gen.record)
	}
	return records, nil
}

func (s *Store) DeleteGeneration(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.generations[name]; !ok {
		return false, nil
	}
	delete(s.generations, name)
	return true, nil
}

func (s *Store) PutEntry(ctx context.Context, entry storage.EntryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := storage.NormalizeEntry(entry, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[entry.Generation]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrGenerationNotFound, entry.Generation)
	}
	gen.entries[entry.Key] = cloneEntry(entry)
	return nil
}

func (s *Store) GetEntry(ctx context.Context, generationName string, key string) (storage.EntryRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EntryRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen, ok := s.generations[generationName]
	if !ok {
		return storage.EntryRecord{}, storage.ErrNotFound
	}
	entry, ok := gen.entries[key]
	if !ok {
		return storage.EntryRecord{}, storage.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (s *Store) ListEntryKeys(ctx context.Context, generationName string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen, ok := s.generations[generationName]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(gen.entries))
	for key := range gen.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneEntry(entry storage.EntryRecord) storage.EntryRecord {
	entry.Header = entry.Header.Clone()
	if entry.Body != nil {
		entry.Body = append([]byte(nil), entry.Body...)
	}
	return entry
}

var _ storage.Store = (*Store)(nil)
