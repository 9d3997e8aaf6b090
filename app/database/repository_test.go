package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// exerciseRepository checks the behaviour every backend shares.
func exerciseRepository(t *testing.T, repo SeenRepository) {
	t.Helper()
	ctx := context.Background()

	seen, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Expected no error on first load, got: %v", err)
	}
	if seen.Len() != 0 {
		t.Fatalf("Expected empty set, got %d keys", seen.Len())
	}

	seen.MarkSeen("https://itch.io/jam/b")
	seen.MarkSeen("https://itch.io/jam/a")
	if err := repo.Save(ctx, seen); err != nil {
		t.Fatalf("Expected no error on save, got: %v", err)
	}

	seen.MarkSeen("https://itch.io/jam/c")
	if err := repo.Save(ctx, seen); err != nil {
		t.Fatalf("Expected no error on second save, got: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Expected no error on reload, got: %v", err)
	}

	want := []string{"https://itch.io/jam/a", "https://itch.io/jam/b", "https://itch.io/jam/c"}
	if got := loaded.Keys(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFileRepository(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), ".seen.json"))
	defer repo.Close()

	exerciseRepository(t, repo)
}

func TestFileRepository_SortedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".seen.json")
	repo := NewFileRepository(path)

	if err := repo.Save(context.Background(), NewSeenSet("b", "a")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "[\n  \"a\",\n  \"b\"\n]\n" {
		t.Errorf("Unexpected state file contents: %q", got)
	}
}

func TestFileRepository_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".seen.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileRepository(path).Load(context.Background()); err == nil {
		t.Errorf("Expected error for corrupt state file")
	}
}

func TestFileRepository_SaveToMissingDirectory(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing", ".seen.json"))

	if err := repo.Save(context.Background(), NewSeenSet("a")); err == nil {
		t.Errorf("Expected error when the directory does not exist")
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer repo.Close()

	exerciseRepository(t, repo)
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(context.Background(), NewSeenSet("https://itch.io/jam/a")); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("Expected migrations to be idempotent, got: %v", err)
	}
	defer reopened.Close()

	seen, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !seen.Contains("https://itch.io/jam/a") {
		t.Errorf("Expected key to survive reopen")
	}
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	key := fmt.Sprintf("charity-comb:test:%d", time.Now().UnixNano())
	repo, err := NewRedisRepository(context.Background(), addr, key)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer func() {
		repo.client.Del(context.Background(), key)
		repo.Close()
	}()

	exerciseRepository(t, repo)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	repo, err := Open(context.Background(), Options{Backend: BackendFile, StatePath: filepath.Join(dir, ".seen.json")})
	if err != nil {
		t.Fatal(err)
	}
	if repo.Backend() != BackendFile {
		t.Errorf("Expected file backend, got %s", repo.Backend())
	}

	repo, err = Open(context.Background(), Options{Backend: BackendSQLite, DBPath: filepath.Join(dir, "seen.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	if repo.Backend() != BackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", repo.Backend())
	}

	_, err = Open(context.Background(), Options{Backend: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "unknown state backend") {
		t.Errorf("Expected unknown backend error, got: %v", err)
	}
}
