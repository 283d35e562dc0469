package format

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// upperRunner fakes a formatter by uppercasing the block.
func upperRunner(_, code string) (string, error) {
	return strings.ToUpper(code), nil
}

func failRunner(_, _ string) (string, error) {
	return "", errors.New("formatter unavailable")
}

func TestFile_FormatsPythonBlock(t *testing.T) {
	doc := "# Title\n\n```python\nx=1\n```\n\ntrailing text\n"
	path := writeFile(t, t.TempDir(), "doc.md", doc)

	if err := File(path, upperRunner, discardLogger()); err != nil {
		t.Fatalf("File: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := "# Title\n\n```python\nX=1\n```\n\ntrailing text\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestFile_FormatterFailureLeavesBlock(t *testing.T) {
	doc := "```python\nbroken(\n```\n"
	path := writeFile(t, t.TempDir(), "doc.md", doc)

	if err := File(path, failRunner, discardLogger()); err != nil {
		t.Fatalf("File: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != doc {
		t.Errorf("document changed despite formatter failure: %q", data)
	}
}

func TestFile_UnknownLanguageUntouched(t *testing.T) {
	doc := "```ruby\nputs 1\n```\n"
	path := writeFile(t, t.TempDir(), "doc.md", doc)

	called := false
	run := func(lang, code string) (string, error) {
		called = true
		return code, nil
	}
	if err := File(path, run, discardLogger()); err != nil {
		t.Fatalf("File: %v", err)
	}
	if called {
		t.Error("formatter must not run for unrecognized fence languages")
	}
	data, _ := os.ReadFile(path)
	if string(data) != doc {
		t.Errorf("document changed: %q", data)
	}
}

func TestFile_TextOutsideBlocksUntouched(t *testing.T) {
	doc := "x=1 outside\n\n```python\nx=1\n```\n"
	path := writeFile(t, t.TempDir(), "doc.md", doc)

	if err := File(path, upperRunner, discardLogger()); err != nil {
		t.Fatalf("File: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "x=1 outside") {
		t.Errorf("prose was reformatted: %q", data)
	}
}

func TestTree_WalksMarkdownOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "```python\na=1\n```\n")
	writeFile(t, dir, "code.py", "b=2\n")

	if err := Tree(dir, upperRunner, discardLogger()); err != nil {
		t.Fatalf("Tree: %v", err)
	}
	md, _ := os.ReadFile(filepath.Join(dir, "doc.md"))
	if !strings.Contains(string(md), "A=1") {
		t.Errorf("doc.md not formatted: %q", md)
	}
	py, _ := os.ReadFile(filepath.Join(dir, "code.py"))
	if string(py) != "b=2\n" {
		t.Errorf("code.py touched: %q", py)
	}
}
