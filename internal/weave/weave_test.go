package weave

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mossdal/loom/internal/tangle"
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

func TestConvertFile_Python(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	input := writeFile(t, dir, "hello.py", "print(1)\n")

	entry, err := ConvertFile(input, out)
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if entry.Meta.OutputFilename != "hello" {
		t.Errorf("OutputFilename = %q", entry.Meta.OutputFilename)
	}

	data, err := os.ReadFile(filepath.Join(out, "hello.md"))
	if err != nil {
		t.Fatalf("woven file missing: %v", err)
	}
	want := "---\noutput_filename: hello\n---\n\n```python\nprint(1)\n```\n"
	if string(data) != want {
		t.Errorf("document = %q, want %q", data, want)
	}
}

func TestConvertFile_UnknownExtensionGetsBareFence(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	input := writeFile(t, dir, "notes.txt", "plain text\n")

	if _, err := ConvertFile(input, out); err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(out, "notes.md"))
	if !strings.Contains(string(data), "\n```\nplain text\n```\n") {
		t.Errorf("document = %q", data)
	}
}

func TestConvertFile_MarkdownSkipped(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "readme.md", "# hi\n")

	entry, err := ConvertFile(input, t.TempDir())
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	if entry != nil {
		t.Error("Markdown input must be skipped")
	}
}

func TestConvertFile_AddsMissingTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	input := writeFile(t, dir, "tail.py", "x = 1") // no trailing newline

	if _, err := ConvertFile(input, out); err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(out, "tail.md"))
	if !strings.Contains(string(data), "```python\nx = 1\n```\n") {
		t.Errorf("document = %q", data)
	}
}

func TestConvertTree_IndexGrouping(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, src, "chapterA/x.py", "x = 1\n")
	writeFile(t, src, "chapterA/y.py", "y = 2\n")
	writeFile(t, src, "chapterB/z.py", "z = 3\n")

	paths, err := ConvertTree(src, dst, discardLogger())
	if err != nil {
		t.Fatalf("ConvertTree: %v", err)
	}
	if len(paths) != 4 { // three documents + content.md
		t.Fatalf("len(paths) = %d, want 4", len(paths))
	}

	index, err := os.ReadFile(filepath.Join(dst, IndexName))
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	s := string(index)

	if n := strings.Count(s, "## Chapter:"); n != 2 {
		t.Errorf("chapter sections = %d, want 2", n)
	}
	posA := strings.Index(s, "## Chapter: chapterA")
	posB := strings.Index(s, "## Chapter: chapterB")
	if posA < 0 || posB < 0 || posA > posB {
		t.Errorf("chapters missing or unsorted: A=%d B=%d", posA, posB)
	}
	sectionA := s[posA:posB]
	if !strings.Contains(sectionA, "chapterA/x.md") || !strings.Contains(sectionA, "chapterA/y.md") {
		t.Errorf("chapterA section incomplete: %q", sectionA)
	}
	if !strings.Contains(s[posB:], "chapterB/z.md") {
		t.Errorf("chapterB section incomplete")
	}
}

func TestConvertTree_ExistingMarkdownCopiedAndIndexed(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, src, "docs/good.md", "---\noutput_filename: good\nbrief: explained\n---\n\nbody\n")
	writeFile(t, src, "docs/plain.md", "just text, no front matter\n")

	if _, err := ConvertTree(src, dst, discardLogger()); err != nil {
		t.Fatalf("ConvertTree: %v", err)
	}

	// Both files are copied verbatim.
	good, err := os.ReadFile(filepath.Join(dst, "docs/good.md"))
	if err != nil {
		t.Fatalf("good.md not copied: %v", err)
	}
	if !strings.Contains(string(good), "output_filename: good") {
		t.Errorf("good.md content = %q", good)
	}
	if _, err := os.ReadFile(filepath.Join(dst, "docs/plain.md")); err != nil {
		t.Fatalf("plain.md not copied: %v", err)
	}

	// Only the one with valid front matter is indexed.
	index, _ := os.ReadFile(filepath.Join(dst, IndexName))
	if !strings.Contains(string(index), "docs/good.md") {
		t.Error("good.md missing from index")
	}
	if strings.Contains(string(index), "plain.md") {
		t.Error("plain.md must be excluded from index")
	}
	if !strings.Contains(string(index), "✅ explained") {
		t.Error("brief indicator missing")
	}
	if !strings.Contains(string(index), "❌") {
		t.Error("missing-details indicator absent")
	}
}

func TestConvertTree_InlinesPlaceholdersAcrossOutput(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	// The woven output tree holds snippet.md (generated from snippet.py);
	// references among the freshly woven documents resolve in place.
	writeFile(t, src, "lib/snippet.py", "print(1)\n")
	writeFile(t, src, "lib/guide.md", "---\noutput_filename: guide\n---\n\nSee: @{snippet.md}\n")

	if _, err := ConvertTree(src, dst, discardLogger()); err != nil {
		t.Fatalf("ConvertTree: %v", err)
	}

	guide, _ := os.ReadFile(filepath.Join(dst, "lib/guide.md"))
	if strings.Contains(string(guide), "@{snippet.md}") {
		t.Errorf("placeholder not inlined: %q", guide)
	}
	if !strings.Contains(string(guide), "print(1)") {
		t.Errorf("referenced content missing: %q", guide)
	}
}

func TestRoundTrip_WeaveThenTangle(t *testing.T) {
	src := t.TempDir()
	woven := t.TempDir()
	tangled := t.TempDir()

	original := "def main():\n    print(\"hi\")\n\nmain()\n"
	writeFile(t, src, "app/main.py", original)

	if _, err := ConvertTree(src, woven, discardLogger()); err != nil {
		t.Fatalf("ConvertTree: %v", err)
	}
	if err := tangle.Tree(woven, tangled, discardLogger()); err != nil {
		t.Fatalf("tangle.Tree: %v", err)
	}

	back, err := os.ReadFile(filepath.Join(tangled, "app/main.py"))
	if err != nil {
		t.Fatalf("round-tripped file missing: %v", err)
	}
	if string(back) != original {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", back, original)
	}
}
