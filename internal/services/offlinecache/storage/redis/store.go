// Package redis stores cache generations in Redis so several proxy
// instances can share one offline copy.
//
// Layout: a sorted set "<prefix>:generations" scored by creation time, and
// one hash "<prefix>:gen:<name>" per generation mapping cache key to a JSON
// encoded entry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
)

const defaultKeyPrefix = "offlinecache"

// Config selects the Redis server and key namespace.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store provides Redis-backed cache generation persistence.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	owned  bool
	now    func() time.Time
}

type entryPayload struct {
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header,omitempty"`
	Body     []byte      `json:"body,omitempty"`
	CachedAt int64       `json:"cached_at"`
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	store := NewWithClient(rdb, cfg.KeyPrefix)
	store.owned = true
	return store, nil
}

// NewWithClient wraps an existing client. Close does not close it.
func NewWithClient(rdb goredis.UniversalClient, keyPrefix string) *Store {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, now: time.Now}
}

// Close releases the client when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil || !s.owned {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) generationsKey() string {
	return s.prefix + ":generations"
}

func (s *Store) generationKey(name string) string {
	return s.prefix + ":gen:" + name
}

// CreateGeneration creates the named generation if it does not exist.
func (s *Store) CreateGeneration(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("generation name is required")
	}
	err := s.rdb.ZAddNX(ctx, s.generationsKey(), goredis.Z{
		Score:  float64(s.now().UTC().UnixMilli()),
		Member: name,
	}).Err()
	if err != nil {
		return fmt.Errorf("create generation: %w", err)
	}
	return nil
}

func (s *Store) HasGeneration(ctx context.Context, name string) (bool, error) {
	_, err := s.rdb.ZScore(ctx, s.generationsKey(), strings.TrimSpace(name)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check generation: %w", err)
	}
	return true, nil
}

func (s *Store) ListGenerations(ctx context.Context) ([]storage.GenerationRecord, error) {
	members, err := s.rdb.ZRangeWithScores(ctx, s.generationsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	records := make([]storage.GenerationRecord, 0, len(members))
	for _, member := range members {
		name, ok := member.Member.(string)
		if !ok {
			continue
		}
		records = append(records, storage.GenerationRecord{
			Name:      name,
			CreatedAt: time.UnixMilli(int64(member.Score)).UTC(),
		})
	}
	return records, nil
}

// DeleteGeneration drops the generation index entry and its hash atomically.
func (s *Store) DeleteGeneration(ctx context.Context, name string) (bool, error) {
	var removed *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.generationsKey(), name)
		pipe.Del(ctx, s.generationKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete generation: %w", err)
	}
	return removed.Val() > 0, nil
}

func (s *Store) PutEntry(ctx context.Context, entry storage.EntryRecord) error {
	entry, err := storage.NormalizeEntry(entry, s.now())
	if err != nil {
		return err
	}
	exists, err := s.HasGeneration(ctx, entry.Generation)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrGenerationNotFound, entry.Generation)
	}
	payload, err := json.Marshal(entryPayload{
		URL:      entry.URL,
		Status:   entry.Status,
		Header:   entry.Header,
		Body:     entry.Body,
		CachedAt: entry.CachedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.generationKey(entry.Generation), entry.Key, payload).Err(); err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, generation string, key string) (storage.EntryRecord, error) {
	raw, err := s.rdb.HGet(ctx, s.generationKey(generation), key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return storage.EntryRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.EntryRecord{}, fmt.Errorf("get entry: %w", err)
	}
	var payload entryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return storage.EntryRecord{}, fmt.Errorf("decode entry: %w", err)
	}
	return storage.EntryRecord{
		Generation: generation,
		Key:        key,
		URL:        payload.URL,
		Status:     payload.Status,
		Header:     payload.Header,
		Body:       payload.Body,
		CachedAt:   time.UnixMilli(payload.CachedAt).UTC(),
	}, nil
}

func (s *Store) ListEntryKeys(ctx context.Context, generation string) ([]string, error) {
	keys, err := s.rdb.HKeys(ctx, s.generationKey(generation)).Result()
	if err != nil {
		return nil, fmt.Errorf("list entry keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ storage.Store = (*Store)(nil)
