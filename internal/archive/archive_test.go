package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mossdal/loom/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "loom-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM metadata`).Scan(&count); err != nil {
		t.Fatalf("metadata table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM content`).Scan(&count); err != nil {
		t.Fatalf("content table missing: %v", err)
	}
}

func TestSaveFiles_InsertThenGet(t *testing.T) {
	db := testDB(t)
	path := writeFile(t, t.TempDir(), "doc.md", "# Hello\n")

	if err := db.SaveFiles([]string{path}); err != nil {
		t.Fatalf("SaveFiles: %v", err)
	}
	text, err := db.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if text != "# Hello\n" {
		t.Errorf("text = %q", text)
	}
}

func TestSaveFiles_UpdateKeyedByPath(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", "v1\n")

	if err := db.SaveFiles([]string{path}); err != nil {
		t.Fatalf("SaveFiles: %v", err)
	}
	writeFile(t, dir, "doc.md", "v2\n")
	if err := db.SaveFiles([]string{path}); err != nil {
		t.Fatalf("SaveFiles (update): %v", err)
	}

	text, _ := db.Get(path)
	if text != "v2\n" {
		t.Errorf("text = %q, want v2", text)
	}
	paths, _ := db.List()
	if len(paths) != 1 {
		t.Errorf("len(paths) = %d, want 1 (no duplicate rows)", len(paths))
	}
}

func TestSaveFiles_UnreadableStoredAsPlaceholder(t *testing.T) {
	db := testDB(t)
	missing := filepath.Join(t.TempDir(), "ghost.md")

	if err := db.SaveFiles([]string{missing}); err != nil {
		t.Fatalf("SaveFiles: %v", err)
	}
	text, err := db.Get(missing)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if text != unreadablePlaceholder {
		t.Errorf("text = %q", text)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.Get("never/stored.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_InsertionOrder(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "a")
	b := writeFile(t, dir, "b.md", "b")

	_ = db.SaveFiles([]string{b})
	_ = db.SaveFiles([]string{a})

	paths, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 || paths[0] != b || paths[1] != a {
		t.Errorf("paths = %v", paths)
	}
}

func TestSearch_MatchesContentAndPath(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	hit := writeFile(t, dir, "hit.md", "the uniqueword lives here\n")
	miss := writeFile(t, dir, "miss.md", "nothing interesting\n")
	_ = db.SaveFiles([]string{hit, miss})

	docs, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 || docs[0].Path != hit {
		t.Errorf("docs = %+v", docs)
	}

	docs, _ = db.Search("miss.md", 10)
	if len(docs) != 1 || docs[0].Path != miss {
		t.Errorf("path search docs = %+v", docs)
	}
}
