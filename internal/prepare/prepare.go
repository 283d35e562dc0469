// Package prepare seeds README.md files with placeholder mentions so a
// source tree can be woven into a browsable book.
package prepare

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var mentionRe = regexp.MustCompile(`@\{([^}]+)\}`)

// Tree ensures every directory under root has a README.md that mentions
// each sibling file as an @{file} placeholder. Existing READMEs keep their
// content; only mentions for files not yet referenced are appended.
func Tree(root string, logger *slog.Logger) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("prepare: read dir %s: %w", root, err)
	}

	if err := updateReadme(root, entries, logger); err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			if err := Tree(filepath.Join(root, e.Name()), logger); err != nil {
				return err
			}
		}
	}
	return nil
}

func updateReadme(dir string, entries []os.DirEntry, logger *slog.Logger) error {
	readmePath := filepath.Join(dir, "README.md")

	mentioned := map[string]struct{}{}
	if data, err := os.ReadFile(readmePath); err == nil {
		for _, m := range mentionRe.FindAllStringSubmatch(string(data), -1) {
			// A colon separates file and identifier; the file part counts
			// as mentioned either way.
			file, _, _ := strings.Cut(m[1], ":")
			mentioned[file] = struct{}{}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("prepare: read %s: %w", readmePath, err)
	}

	var missing []string
	for _, e := range entries {
		if e.IsDir() || strings.EqualFold(e.Name(), "README.md") {
			continue
		}
		if _, ok := mentioned[e.Name()]; !ok {
			missing = append(missing, e.Name())
		}
	}
	if len(missing) == 0 {
		return nil
	}

	f, err := os.OpenFile(readmePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("prepare: open %s: %w", readmePath, err)
	}
	defer f.Close()
	for _, name := range missing {
		if _, err := fmt.Fprintf(f, "@{%s}\n", name); err != nil {
			return fmt.Errorf("prepare: append %s: %w", readmePath, err)
		}
	}
	logger.Info("prepare: updated", slog.String("path", readmePath), slog.Int("mentions", len(missing)))
	return nil
}
