package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
)

func TestStoreKeepsCreationOrder(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, name := range []string{"v9", "v10", "v2"} {
		if err := store.CreateGeneration(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	generations, err := store.ListGenerations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(generations) != 3 || generations[0].Name != "v9" || generations[2].Name != "v2" {
		t.Fatalf("generations = %+v", generations)
	}
}

func TestStoreEntriesAreCopied(t *testing.T) {
	store := New()
	ctx := context.Background()
	if err := store.CreateGeneration(ctx, "v3"); err != nil {
		t.Fatalf("create: %v", err)
	}
	body := []byte("abc")
	if err := store.PutEntry(ctx, storage.EntryRecord{Generation: "v3", Key: "k", Body: body}); err != nil {
		t.Fatalf("put: %v", err)
	}
	body[0] = 'z'

	got, err := store.GetEntry(ctx, "v3", "k")
	if err != nil || string(got.Body) != "abc" {
		t.Fatalf("get = %q, %v", got.Body, err)
	}
}

func TestStorePutIntoMissingGeneration(t *testing.T) {
	err := New().PutEntry(context.Background(), storage.EntryRecord{Generation: "ghost", Key: "k"})
	if !errors.Is(err, storage.ErrGenerationNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestStoreDeleteDropsEntries(t *testing.T) {
	store := New()
	ctx := context.Background()
	_ = store.CreateGeneration(ctx, "v2")
	_ = store.PutEntry(ctx, storage.EntryRecord{Generation: "v2", Key: "k"})

	deleted, err := store.DeleteGeneration(ctx, "v2")
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
	if _, err := store.GetEntry(ctx, "v2", "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete err = %v", err)
	}
	_ = store.CreateGeneration(ctx, "v2")
	keys, _ := store.ListEntryKeys(ctx, "v2")
	if len(keys) != 0 {
		t.Fatalf("recreated generation inherited entries: %v", keys)
	}
}
