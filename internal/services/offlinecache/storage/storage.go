// Package storage defines the persistent cache store contract shared by the
// sqlite, redis and memory backends.
package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates a missing cache entry.
	ErrNotFound = errors.New("cache entry not found")
	// ErrGenerationNotFound indicates a write into a generation that does not exist.
	ErrGenerationNotFound = errors.New("cache generation not found")
)

// Backend names accepted by configuration.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// GenerationRecord is one named cache generation.
type GenerationRecord struct {
	Name      string
	CreatedAt time.Time
}

// EntryRecord is one stored response inside a generation.
type EntryRecord struct {
	Generation string
	Key        string
	URL        string
	Status     int
	Header     http.Header
	Body       []byte
	CachedAt   time.Time
}

// Store persists cache generations and their entries.
type Store interface {
	// CreateGeneration creates name if absent; existing generations are kept.
	CreateGeneration(ctx context.Context, name string) error
	HasGeneration(ctx context.Context, name string) (bool, error)
	// ListGenerations returns generations oldest first.
	ListGenerations(ctx context.Context) ([]GenerationRecord, error)
	// DeleteGeneration removes a generation with all its entries.
	DeleteGeneration(ctx context.Context, name string) (bool, error)
	// PutEntry inserts or replaces one entry.
	PutEntry(ctx context.Context, entry EntryRecord) error
	GetEntry(ctx context.Context, generation string, key string) (EntryRecord, error)
	ListEntryKeys(ctx context.Context, generation string) ([]string, error)
	Close() error
}

// NormalizeEntry trims identifiers, fills CachedAt and validates the record.
func NormalizeEntry(entry EntryRecord, now time.Time) (EntryRecord, error) {
	entry.Generation = strings.TrimSpace(entry.Generation)
	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Generation == "" {
		return EntryRecord{}, errors.New("generation is required")
	}
	if entry.Key == "" {
		return EntryRecord{}, errors.New("entry key is required")
	}
	if entry.Status == 0 {
		entry.Status = http.StatusOK
	}
	if entry.URL == "" {
		entry.URL = entry.Key
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = now
	}
	entry.CachedAt = entry.CachedAt.UTC()
	return entry, nil
}
