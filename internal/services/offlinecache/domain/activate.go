package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ActivateReport summarizes one activation.
type ActivateReport struct {
	CacheName string
	// Deleted lists the stale generations removed, sorted by name.
	Deleted []string
	// Claimed is the number of open clients now controlled by this worker.
	Claimed int
}

// activate deletes every stale generation and claims open clients. The
// deletions and the claim run concurrently; activation resolves once all
// of them have.
func activate(ctx context.Context, cfg Config, storage CacheStorage, clients Clients, logf func(string, ...any)) (ActivateReport, error) {
	report := ActivateReport{CacheName: cfg.CacheName()}

	names, err := storage.Keys(ctx)
	if err != nil {
		return report, fmt.Errorf("list cache generations: %w", err)
	}

	var mu sync.Mutex
	lifetime := NewLifetime(ctx, 0)
	for _, name := range names {
		if name == cfg.CacheName() {
			continue
		}
		lifetime.WaitUntil(func(ctx context.Context) error {
			deleted, err := storage.Delete(ctx, name)
			if err != nil {
				return fmt.Errorf("delete cache generation %q: %w", name, err)
			}
			if deleted {
				logf("activate %s: deleted stale generation %s", cfg.CacheName(), name)
				mu.Lock()
				report.Deleted = append(report.Deleted, name)
				mu.Unlock()
			}
			return nil
		})
	}
	lifetime.WaitUntil(func(ctx context.Context) error {
		claimed, err := clients.Claim(ctx, cfg.CacheName())
		if err != nil {
			return fmt.Errorf("claim clients: %w", err)
		}
		mu.Lock()
		report.Claimed = claimed
		mu.Unlock()
		return nil
	})

	err = lifetime.Wait()
	sort.Strings(report.Deleted)
	return report, err
}
