package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.db")
	openTestStore(t, path)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	for _, table := range []string{"kv_entries", migrationTable} {
		var name string
		err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "icons.db"))
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v; want miss", ok, err)
	}

	if err := store.Set(ctx, "k", `{"iconUrl":"a"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "k", `{"iconUrl":"b"}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = %q, %v, %v", got, ok, err)
	}
	if got != `{"iconUrl":"b"}` {
		t.Errorf("Get(k) = %q, want overwritten value", got)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("key still present after Delete")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestStore(t, path)
	got, ok, err := second.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("Get after reopen = %q, %v, %v; want v", got, ok, err)
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "icons.db"))
	if err := store.Set(context.Background(), "", "v"); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	got := upSection(content)
	if !strings.Contains(got, "CREATE TABLE a") || strings.Contains(got, "DROP TABLE") {
		t.Errorf("upSection = %q", got)
	}
	if upSection("SELECT 1;") != "SELECT 1;" {
		t.Error("content without markers should be returned as is")
	}
}
