// Package tangle extracts source code back out of literate Markdown
// documents: fenced code blocks are grouped by detected language and
// written to files named after the front matter's output_filename.
package tangle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossdal/loom/internal/frontmatter"
	"github.com/mossdal/loom/internal/langs"
)

// ErrNoFrontMatter marks a Markdown document that carries no usable front
// matter. At the tree level such documents are copied through unchanged.
var ErrNoFrontMatter = errors.New("tangle: no metadata found")

// File extracts code from one Markdown document. The result maps output
// file names ("<output_filename>.<ext>") to the concatenated content of
// all fenced blocks of that language. Blocks whose fence language is not
// recognized are skipped.
func File(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tangle: open %s: %w", path, err)
	}
	defer f.Close()

	var (
		metaLines   []string
		inMatter    bool
		foundMatter bool
		current     string
		blocks      = map[string]*strings.Builder{}
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == frontmatter.Delimiter && !inMatter && !foundMatter:
			inMatter = true
		case trimmed == frontmatter.Delimiter && inMatter:
			inMatter = false
			foundMatter = true
		case inMatter:
			metaLines = append(metaLines, line)
		case strings.HasPrefix(trimmed, "```") && current != "":
			// Closing fence of the active block.
			current = ""
		case strings.HasPrefix(trimmed, "```"):
			current = langs.FromFence(line)
			if current != "" {
				if _, ok := blocks[current]; !ok {
					blocks[current] = &strings.Builder{}
				}
			}
		case current != "":
			blocks[current].WriteString(line)
			blocks[current].WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tangle: read %s: %w", path, err)
	}

	if !foundMatter {
		return nil, ErrNoFrontMatter
	}
	meta, err := frontmatter.Parse(strings.Join(metaLines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrontMatter, err)
	}

	out := make(map[string]string, len(blocks))
	for lang, code := range blocks {
		ext := langs.Extension(lang)
		if ext == "" {
			continue
		}
		out[meta.OutputFilename+"."+ext] = code.String()
	}
	return out, nil
}

// Tree walks src recursively, mirroring its structure into dst. Markdown
// documents are tangled; documents without front matter and all
// non-Markdown files are copied through unchanged. Per-file errors are
// logged and the walk continues.
func Tree(src, dst string, logger *slog.Logger) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("tangle: create output dir: %w", err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("tangle: read dir %s: %w", src, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		if entry.IsDir() {
			if err := Tree(srcPath, filepath.Join(dst, entry.Name()), logger); err != nil {
				return err
			}
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			if err := copyFile(srcPath, filepath.Join(dst, entry.Name())); err != nil {
				logger.Warn("tangle: copy failed", slog.String("path", srcPath), slog.String("error", err.Error()))
			}
			continue
		}

		files, err := File(srcPath)
		switch {
		case errors.Is(err, ErrNoFrontMatter):
			if err := copyFile(srcPath, filepath.Join(dst, entry.Name())); err != nil {
				logger.Warn("tangle: copy failed", slog.String("path", srcPath), slog.String("error", err.Error()))
			} else {
				logger.Debug("tangle: copied through", slog.String("path", srcPath))
			}
		case err != nil:
			logger.Warn("tangle: extract failed", slog.String("path", srcPath), slog.String("error", err.Error()))
		default:
			for name, code := range files {
				outPath := filepath.Join(dst, name)
				if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
					logger.Warn("tangle: write failed", slog.String("path", outPath), slog.String("error", err.Error()))
					continue
				}
				logger.Info("tangle: extracted", slog.String("path", outPath))
			}
		}
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
