package bind

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mossdal/loom/internal/testutil"
)

func TestTree_InlinesAgainstFullSourceTree(t *testing.T) {
	src := testutil.TestTree(t, map[string]string{
		"ch1/hello.py":  "def hello():\n    print(\"hi\")\n",
		"ch1/README.md": "Usage:\n\n@{hello.py:hello}\n",
	})
	dst := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	if err := Tree(src, dst, logger); err != nil {
		t.Fatalf("Tree: %v", err)
	}

	readme, err := os.ReadFile(filepath.Join(dst, "ch1/README.md"))
	if err != nil {
		t.Fatalf("bound README missing: %v", err)
	}
	if !strings.Contains(string(readme), "def hello():") {
		t.Errorf("definition not inlined: %q", readme)
	}
	if strings.Contains(string(readme), "@{hello.py:hello}") {
		t.Errorf("marker left behind: %q", readme)
	}
}

func TestTree_OnlyMarkdownInOutput(t *testing.T) {
	src := testutil.TestTree(t, map[string]string{
		"code.py": "x = 1\n",
		"doc.md":  "text\n",
	})
	dst := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	if err := Tree(src, dst, logger); err != nil {
		t.Fatalf("Tree: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "doc.md")); err != nil {
		t.Error("doc.md missing from output")
	}
	if _, err := os.Stat(filepath.Join(dst, "code.py")); err == nil {
		t.Error("non-Markdown file leaked into output")
	}
	if _, err := os.Stat(filepath.Join(dst, scratchName)); err == nil {
		t.Error("scratch directory left behind")
	}
}

func TestTree_InputUntouched(t *testing.T) {
	original := "see @{ref.txt}\n"
	src := testutil.TestTree(t, map[string]string{
		"ref.txt": "content\n",
		"doc.md":  original,
	})
	dst := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	if err := Tree(src, dst, logger); err != nil {
		t.Fatalf("Tree: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(src, "doc.md"))
	if string(data) != original {
		t.Errorf("input file modified: %q", data)
	}
	bound, _ := os.ReadFile(filepath.Join(dst, "doc.md"))
	if !strings.Contains(string(bound), "content") {
		t.Errorf("output not inlined: %q", bound)
	}
}
