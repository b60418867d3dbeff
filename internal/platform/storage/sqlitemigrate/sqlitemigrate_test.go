package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

const generationsUp = "-- +migrate Up\nCREATE TABLE cache_generations(name TEXT PRIMARY KEY);"

func migrationFS(files map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, body := range files {
		out[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return out
}

func TestApplyMigrationsInOrderAndOnce(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()
	files := migrationFS(map[string]string{
		"002_entries.sql":     "-- +migrate Up\nCREATE TABLE cache_entries(generation TEXT REFERENCES cache_generations(name));",
		"001_generations.sql": generationsUp,
		"README.md":           "not a migration",
	})

	for run := 1; run <= 2; run++ {
		if err := ApplyMigrations(ctx, db, files, ""); err != nil {
			t.Fatalf("run %d: apply migrations: %v", run, err)
		}
	}

	if got := countRows(t, db, "schema_migrations"); got != 2 {
		t.Fatalf("recorded migrations = %d, want 2", got)
	}
	for _, table := range []string{"cache_generations", "cache_entries"} {
		if !hasTable(t, db, table) {
			t.Fatalf("table %s was not created", table)
		}
	}
}

func TestApplyMigrationsLeavesFailedMigrationUnrecorded(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	broken := migrationFS(map[string]string{"001_generations.sql": "-- +migrate Up\nCREAT TABLE cache_generations(name TEXT);"})
	if err := ApplyMigrations(ctx, db, broken, ""); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if got := countRows(t, db, "schema_migrations"); got != 0 {
		t.Fatalf("recorded migrations = %d, want 0", got)
	}

	fixed := migrationFS(map[string]string{"001_generations.sql": generationsUp})
	if err := ApplyMigrations(ctx, db, fixed, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := countRows(t, db, "schema_migrations"); got != 1 {
		t.Fatalf("recorded migrations = %d, want 1", got)
	}
}

func TestApplyMigrationsUsesRootInKey(t *testing.T) {
	db := openMemoryDB(t)
	files := migrationFS(map[string]string{"cache/001_generations.sql": generationsUp})

	if err := ApplyMigrations(context.Background(), db, files, "cache"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	var key string
	if err := db.QueryRow("SELECT name FROM schema_migrations").Scan(&key); err != nil {
		t.Fatalf("read migration key: %v", err)
	}
	if key != "cache/001_generations.sql" {
		t.Fatalf("migration key = %q", key)
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "up only", content: generationsUp, want: "CREATE TABLE cache_generations(name TEXT PRIMARY KEY);"},
		{name: "stops at down", content: "-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;", want: "CREATE TABLE a(id INT);"},
		{name: "unmarked", content: "SELECT 1;", want: "SELECT 1;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.TrimSpace(ExtractUpMigration(tt.content)); got != tt.want {
				t.Fatalf("up = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if IsAlreadyExistsError(nil) {
		t.Fatal("nil error reported as already exists")
	}
	if !IsAlreadyExistsError(errors.New("table cache_generations already exists")) {
		t.Fatal("expected already exists match")
	}
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Every pooled connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func hasTable(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n); err != nil {
		t.Fatalf("check table %s: %v", table, err)
	}
	return n == 1
}
