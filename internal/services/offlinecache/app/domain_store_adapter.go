package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
)

// domainStoreAdapter exposes a storage.Store as the worker's CacheStorage.
type domainStoreAdapter struct {
	store storage.Store
}

func newDomainStoreAdapter(store storage.Store) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) Open(ctx context.Context, name string) (domain.Cache, error) {
	if a == nil || a.store == nil {
		return nil, errStoreNotConfigured
	}
	if err := a.store.CreateGeneration(ctx, name); err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}
	return &generationCache{store: a.store, name: name}, nil
}

func (a *domainStoreAdapter) Has(ctx context.Context, name string) (bool, error) {
	if a == nil || a.store == nil {
		return false, errStoreNotConfigured
	}
	return a.store.HasGeneration(ctx, name)
}

func (a *domainStoreAdapter) Keys(ctx context.Context) ([]string, error) {
	if a == nil || a.store == nil {
		return nil, errStoreNotConfigured
	}
	records, err := a.store.ListGenerations(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}
	return names, nil
}

func (a *domainStoreAdapter) Delete(ctx context.Context, name string) (bool, error) {
	if a == nil || a.store == nil {
		return false, errStoreNotConfigured
	}
	return a.store.DeleteGeneration(ctx, name)
}

// generationCache is one generation viewed as a domain.Cache.
type generationCache struct {
	store storage.Store
	name  string
}

func (c *generationCache) Name() string { return c.name }

func (c *generationCache) Match(ctx context.Context, key string) (domain.Response, bool, error) {
	record, err := c.store.GetEntry(ctx, c.name, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Response{}, false, nil
		}
		return domain.Response{}, false, err
	}
	return toDomainResponse(record), true, nil
}

func (c *generationCache) Put(ctx context.Context, key string, response domain.Response) error {
	return mapStorageError(c.store.PutEntry(ctx, storage.EntryRecord{
		Generation: c.name,
		Key:        key,
		URL:        response.URL,
		Status:     response.Status,
		Header:     response.Header.Clone(),
		Body:       response.Body,
	}))
}

func (c *generationCache) Keys(ctx context.Context) ([]string, error) {
	return c.store.ListEntryKeys(ctx, c.name)
}

func toDomainResponse(record storage.EntryRecord) domain.Response {
	return domain.Response{
		URL:    record.URL,
		Status: record.Status,
		Header: record.Header.Clone(),
		Body:   record.Body,
	}
}

// errGenerationDeleted reports a write into a generation removed underneath
// the worker.
var errGenerationDeleted = errors.New("cache generation was deleted")

var errStoreNotConfigured = errors.New("cache store is not configured")

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrGenerationNotFound):
		return fmt.Errorf("%w: %w", errGenerationDeleted, err)
	default:
		return err
	}
}
