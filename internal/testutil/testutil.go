// Package testutil provides shared test helpers for setting up archives
// and literate source trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mossdal/loom/internal/archive"
)

// TestArchive creates a temporary SQLite archive that is automatically
// cleaned up.
func TestArchive(t *testing.T) archive.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "loom-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := archive.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestTree creates a temporary directory populated with the given files.
// Keys are slash-separated paths relative to the root.
func TestTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
