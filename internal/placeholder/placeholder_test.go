package placeholder

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestResolve_WholeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "snippet.py", "print(1)\n")

	got := Resolve("before @{snippet.py} after", dir)
	want := "before print(1)\n after"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolve_Definition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.py", "def used():\n    return 1\ndef other():\n    return 2\n")

	got := Resolve("@{lib.py:used}", dir)
	want := "def used():\n    return 1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolve_MissingTargetsUnchanged(t *testing.T) {
	doc := "keep @{nope.py} and @{nope.py:f} as-is"
	got := Resolve(doc, t.TempDir())
	if got != doc {
		t.Errorf("document changed: %q", got)
	}
}

func TestResolve_MissingIdentifierUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.py", "def real():\n    pass\n")

	doc := "@{lib.py:imaginary}"
	if got := Resolve(doc, dir); got != doc {
		t.Errorf("unresolvable identifier was rewritten: %q", got)
	}
}

func TestResolve_FirstColonSplits(t *testing.T) {
	dir := t.TempDir()
	// Only the first colon splits file from identifier; the rest stays in
	// the identifier and here matches nothing.
	writeFile(t, dir, "lib.py", "def a():\n    pass\n")

	doc := "@{lib.py:a:b}"
	if got := Resolve(doc, dir); got != doc {
		t.Errorf("got %q", got)
	}
}

func TestResolve_MultipleMarkersLeftToRight(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "A")
	writeFile(t, dir, "b.txt", "B")

	got := Resolve("@{a.txt}-@{missing}-@{b.txt}", dir)
	if got != "A-@{missing}-B" {
		t.Errorf("got %q", got)
	}
}

func TestResolve_NoRecursiveExpansion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inner.txt", "nested @{deep.txt}")
	writeFile(t, dir, "deep.txt", "should not appear")

	got := Resolve("@{inner.txt}", dir)
	if got != "nested @{deep.txt}" {
		t.Errorf("single pass must not expand inlined markers: %q", got)
	}
}

func TestResolveFile_RewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "snippet.py", "print(1)\n")
	docPath := writeFile(t, dir, "main.md", "# Doc\n\n@{snippet.py}\n")

	if err := ResolveFile(docPath); err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	data, _ := os.ReadFile(docPath)
	if string(data) != "# Doc\n\nprint(1)\n\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestResolveFile_RelativeToOwnDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/ref.txt", "from sub")
	docPath := writeFile(t, dir, "sub/doc.md", "@{ref.txt}")

	if err := ResolveFile(docPath); err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	data, _ := os.ReadFile(docPath)
	if string(data) != "from sub" {
		t.Errorf("file content = %q", data)
	}
}

func TestResolveTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ref.txt", "inlined")
	writeFile(t, dir, "top.md", "@{ref.txt}")
	writeFile(t, dir, "deep/ref.txt", "deep inlined")
	writeFile(t, dir, "deep/doc.md", "@{ref.txt}")
	writeFile(t, dir, "skip.txt", "@{ref.txt}")

	if err := ResolveTree(dir, discardLogger()); err != nil {
		t.Fatalf("ResolveTree: %v", err)
	}

	top, _ := os.ReadFile(filepath.Join(dir, "top.md"))
	if string(top) != "inlined" {
		t.Errorf("top.md = %q", top)
	}
	deep, _ := os.ReadFile(filepath.Join(dir, "deep/doc.md"))
	if string(deep) != "deep inlined" {
		t.Errorf("deep/doc.md = %q", deep)
	}
	skip, _ := os.ReadFile(filepath.Join(dir, "skip.txt"))
	if string(skip) != "@{ref.txt}" {
		t.Errorf("non-Markdown file was touched: %q", skip)
	}
}
