// Package weave converts source trees into literate Markdown documents and
// builds the content index ("book") for the generated tree.
package weave

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mossdal/loom/internal/frontmatter"
	"github.com/mossdal/loom/internal/langs"
	"github.com/mossdal/loom/internal/placeholder"
)

// IndexName is the file name of the generated content index.
const IndexName = "content.md"

// Entry is one generated or discovered document that carries front matter
// and therefore appears in the content index.
type Entry struct {
	Path string // absolute path of the Markdown document
	Meta frontmatter.Meta
}

// ConvertFile converts a single code file into a literate Markdown
// document inside outDir: synthesized front matter followed by one fenced
// code block holding the whole file content. Markdown inputs return a nil
// entry (the tree walk handles their copying).
func ConvertFile(input, outDir string) (*Entry, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input), "."))
	if ext == "md" || ext == "markdown" {
		return nil, nil
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	meta := frontmatter.Meta{OutputFilename: stem}
	header, err := meta.Marshal()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("weave: read %s: %w", input, err)
	}
	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	var doc strings.Builder
	doc.Write(header)
	doc.WriteString("\n")
	doc.WriteString("```" + langs.ForExtension(ext) + "\n")
	doc.WriteString(content)
	doc.WriteString("```\n")

	outPath := filepath.Join(outDir, stem+".md")
	if err := os.WriteFile(outPath, []byte(doc.String()), 0o644); err != nil {
		return nil, fmt.Errorf("weave: write %s: %w", outPath, err)
	}
	return &Entry{Path: outPath, Meta: meta}, nil
}

// ConvertTree weaves every file under src into dst, mirroring the
// directory structure, then writes the content index and inlines
// placeholders across the finished output tree (so cross-file references
// among freshly woven documents resolve). It returns the paths of all
// indexed documents plus the index itself.
func ConvertTree(src, dst string, logger *slog.Logger) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("weave: create output dir: %w", err)
	}
	entries, err := convertTree(src, dst, logger)
	if err != nil {
		return nil, err
	}

	indexPath := filepath.Join(dst, IndexName)
	if err := writeContentIndex(indexPath, dst, entries); err != nil {
		return nil, err
	}

	if err := placeholder.ResolveTree(dst, logger); err != nil {
		return nil, fmt.Errorf("weave: inline placeholders: %w", err)
	}

	paths := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return append(paths, indexPath), nil
}

func convertTree(src, dst string, logger *slog.Logger) ([]Entry, error) {
	dirEntries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("weave: read dir %s: %w", src, err)
	}

	var out []Entry
	for _, de := range dirEntries {
		srcPath := filepath.Join(src, de.Name())
		if de.IsDir() {
			subDst := filepath.Join(dst, de.Name())
			if err := os.MkdirAll(subDst, 0o755); err != nil {
				return nil, fmt.Errorf("weave: create dir %s: %w", subDst, err)
			}
			sub, err := convertTree(srcPath, subDst, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(de.Name()), "."))
		if ext == "md" || ext == "markdown" {
			dstPath := filepath.Join(dst, de.Name())
			if err := copyFile(srcPath, dstPath); err != nil {
				logger.Warn("weave: copy failed", slog.String("path", srcPath), slog.String("error", err.Error()))
				continue
			}
			// Index inclusion is decided by the original file's front matter.
			meta, found, err := frontmatter.ParseFile(srcPath)
			if err != nil {
				logger.Warn("weave: front matter probe failed", slog.String("path", srcPath), slog.String("error", err.Error()))
				continue
			}
			if found {
				out = append(out, Entry{Path: dstPath, Meta: *meta})
			}
			continue
		}

		entry, err := ConvertFile(srcPath, dst)
		if err != nil {
			logger.Warn("weave: convert failed", slog.String("path", srcPath), slog.String("error", err.Error()))
			continue
		}
		if entry != nil {
			logger.Info("weave: converted", slog.String("path", entry.Path))
			out = append(out, *entry)
		}
	}
	return out, nil
}

// writeContentIndex builds the "book" overview: one table per chapter (the
// first path component under root), chapters sorted lexicographically.
func writeContentIndex(indexPath, root string, entries []Entry) error {
	chapters := map[string][]Entry{}
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			rel = e.Path
		}
		chapter := strings.Split(filepath.ToSlash(rel), "/")[0]
		chapters[chapter] = append(chapters[chapter], e)
	}

	names := make([]string, 0, len(chapters))
	for name := range chapters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Book Overview\n\n")
	b.WriteString("Below is a list of all Markdown files that define an `output_filename` in " +
		"their front matter, organized by chapters (folder names). Files with a `brief` " +
		"or `details` show them in the table.\n\n")

	for _, name := range names {
		b.WriteString(fmt.Sprintf("## Chapter: %s\n\n", name))
		b.WriteString("| **File Name** | **Path** | **Brief** | **Details** |\n")
		b.WriteString("|---------------|----------|-----------|-------------|\n")
		for _, e := range chapters[name] {
			rel, err := filepath.Rel(root, e.Path)
			if err != nil {
				rel = e.Path
			}
			rel = filepath.ToSlash(rel)

			brief := "❌"
			if e.Meta.Brief != "" {
				brief = "✅ " + e.Meta.Brief
			}
			details := "❌"
			if e.Meta.Details != "" {
				details = fmt.Sprintf("<details><summary>View Details</summary>%s</details>", e.Meta.Details)
			}
			b.WriteString(fmt.Sprintf("| %s | [%s](%s) | %s | %s |\n",
				e.Meta.OutputFilename, rel, rel, brief, details))
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(indexPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("weave: write index: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
