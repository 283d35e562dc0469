// Package placeholder substitutes @{file} and @{file:identifier} markers
// in Markdown documents with referenced file content.
//
// Substitution is purely textual and resolves exactly in place: a whole-file
// reference inlines the raw file content, a file:identifier reference
// inlines the extracted definition. Any marker that cannot be resolved
// (missing file, no matching identifier, extraction error) is left
// untouched so the document stays valid. Resolution is a single
// left-to-right pass; inlined content is not re-scanned.
package placeholder

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mossdal/loom/internal/extract"
)

var markerRe = regexp.MustCompile(`@\{([^}]+)\}`)

// Resolve substitutes every resolvable marker in doc. Referenced paths are
// resolved relative to baseDir.
func Resolve(doc, baseDir string) string {
	return markerRe.ReplaceAllStringFunc(doc, func(match string) string {
		target := markerRe.FindStringSubmatch(match)[1]
		if text, ok := resolveTarget(target, baseDir); ok {
			return text
		}
		return match
	})
}

// resolveTarget resolves one marker body. A colon splits it into file and
// identifier; without a colon the whole file is inlined.
func resolveTarget(target, baseDir string) (string, bool) {
	fileName, identifier, hasIdent := strings.Cut(target, ":")
	refPath := filepath.Join(baseDir, fileName)

	if _, err := os.Stat(refPath); err != nil {
		return "", false
	}
	if hasIdent {
		text, found, err := extract.Definition(refPath, identifier)
		if err != nil || !found {
			return "", false
		}
		return text, true
	}
	data, err := os.ReadFile(refPath)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ResolveFile rewrites the Markdown file at path in place, resolving its
// markers against the file's own directory. The file is only rewritten
// when at least one marker resolved.
func ResolveFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("placeholder: read %s: %w", path, err)
	}
	resolved := Resolve(string(data), filepath.Dir(path))
	if resolved == string(data) {
		return nil
	}
	if err := os.WriteFile(path, []byte(resolved), 0o644); err != nil {
		return fmt.Errorf("placeholder: write %s: %w", path, err)
	}
	return nil
}

// ResolveTree applies ResolveFile to every .md file under root. Per-file
// failures are logged and the walk continues.
func ResolveTree(root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := ResolveFile(path); err != nil {
			logger.Warn("placeholder: resolve failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}
