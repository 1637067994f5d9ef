// Package testutil provides shared test helpers for vaults, ledgers, and a
// fake content service.
package testutil

import (
	"os"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/feedpost/internal/ledger"
	"github.com/starford/feedpost/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "feedpost-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates an in-memory vault seeded with files.
func TestVault(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	store := storage.New(afero.NewBasePathFs(afero.NewMemMapFs(), "/vault"))
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	return store
}

// TestDiskVault creates a temporary on-disk vault directory seeded with files.
func TestDiskVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	return dir, store
}
