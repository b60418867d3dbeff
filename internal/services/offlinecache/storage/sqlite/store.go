// Package sqlite persists cache generations in a local SQLite database so
// the offline copy survives process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/offlinecache/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store provides SQLite-backed cache generation persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a cache SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateGeneration creates the named generation if it does not exist.
func (s *Store) CreateGeneration(ctx context.Context, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("generation name is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO cache_generations (name, created_at) VALUES (?, ?)
ON CONFLICT(name) DO NOTHING
`, name, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("create generation: %w", err)
	}
	return nil
}

// HasGeneration reports whether the generation exists.
func (s *Store) HasGeneration(ctx context.Context, name string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM cache_generations WHERE name = ?`, strings.TrimSpace(name)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check generation: %w", err)
	}
	return true, nil
}

// ListGenerations lists generations oldest first.
func (s *Store) ListGenerations(ctx context.Context) ([]storage.GenerationRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT name, created_at
FROM cache_generations
ORDER BY created_at ASC, name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var records []storage.GenerationRecord
	for rows.Next() {
		var record storage.GenerationRecord
		var createdAt int64
		if err := rows.Scan(&record.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return records, nil
}

// DeleteGeneration removes a generation and its entries in one transaction.
func (s *Store) DeleteGeneration(ctx context.Context, name string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete generation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE generation = ?`, name); err != nil {
		return false, fmt.Errorf("delete entries: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM cache_generations WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete generation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete generation rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete generation: %w", err)
	}
	return affected > 0, nil
}

// PutEntry inserts or replaces one cached response.
func (s *Store) PutEntry(ctx context.Context, entry storage.EntryRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	entry, err := storage.NormalizeEntry(entry, s.now())
	if err != nil {
		return err
	}
	headerJSON, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put entry: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM cache_generations WHERE name = ?`, entry.Generation).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", storage.ErrGenerationNotFound, entry.Generation)
	}
	if err != nil {
		return fmt.Errorf("check generation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO cache_entries (
	generation,
	cache_key,
	url,
	status,
	header_json,
	body,
	cached_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(generation, cache_key) DO UPDATE SET
	url = excluded.url,
	status = excluded.status,
	header_json = excluded.header_json,
	body = excluded.body,
	cached_at = excluded.cached_at
`,
		entry.Generation,
		entry.Key,
		entry.URL,
		entry.Status,
		string(headerJSON),
		entry.Body,
		entry.CachedAt.UnixMilli(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", storage.ErrGenerationNotFound, entry.Generation)
		}
		return fmt.Errorf("put entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put entry: %w", err)
	}
	return nil
}

// GetEntry loads one cached response.
func (s *Store) GetEntry(ctx context.Context, generation string, key string) (storage.EntryRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.EntryRecord{}, err
	}
	record := storage.EntryRecord{Generation: generation, Key: key}
	var headerJSON string
	var cachedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT url, status, header_json, body, cached_at
FROM cache_entries
WHERE generation = ? AND cache_key = ?
`, generation, key).Scan(&record.URL, &record.Status, &headerJSON, &record.Body, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.EntryRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.EntryRecord{}, fmt.Errorf("get entry: %w", err)
	}
	record.Header = http.Header{}
	if err := json.Unmarshal([]byte(headerJSON), &record.Header); err != nil {
		return storage.EntryRecord{}, fmt.Errorf("decode header: %w", err)
	}
	record.CachedAt = time.UnixMilli(cachedAt).UTC()
	return record, nil
}

// ListEntryKeys lists the keys stored in a generation in lexical order.
func (s *Store) ListEntryKeys(ctx context.Context, generation string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT cache_key FROM cache_entries WHERE generation = ? ORDER BY cache_key ASC
`, generation)
	if err != nil {
		return nil, fmt.Errorf("list entry keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan entry key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry keys: %w", err)
	}
	return keys, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ storage.Store = (*Store)(nil)
