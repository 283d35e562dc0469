// Package format reformats fenced code blocks inside Markdown documents
// by piping them through external code formatters.
package format

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mossdal/loom/internal/langs"
)

// Runner formats one code block. It returns the formatted code or an
// error, in which case the block is left unchanged.
type Runner func(lang, code string) (string, error)

// ExternalRunner pipes code through the conventional formatter for the
// language: black for Python, rustfmt for Rust. Other languages are
// reported as unsupported.
func ExternalRunner(lang, code string) (string, error) {
	var cmd *exec.Cmd
	switch lang {
	case "python":
		cmd = exec.Command("black", "--quiet", "-")
	case "rust":
		cmd = exec.Command("rustfmt", "--emit", "stdout")
	default:
		return "", fmt.Errorf("format: no formatter for %q", lang)
	}
	cmd.Stdin = strings.NewReader(code)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("format: %s: %w: %s", cmd.Path, err, stderr.String())
	}
	return out.String(), nil
}

// File reformats the fenced code blocks of one Markdown file in place.
// Blocks whose language has no formatter, and blocks the formatter
// rejects, are kept as they are.
func File(path string, run Runner, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("format: read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	var (
		out        []string
		block      []string
		inBlock    bool
		blockLang  string
		anyChanged bool
	)

	flush := func(fence string) {
		formatted, err := run(blockLang, strings.Join(block, "\n")+"\n")
		if err != nil {
			logger.Warn("format: formatter failed",
				slog.String("path", path),
				slog.String("lang", blockLang),
				slog.String("error", err.Error()))
			out = append(out, block...)
		} else {
			newLines := strings.Split(strings.TrimSuffix(formatted, "\n"), "\n")
			if strings.Join(newLines, "\n") != strings.Join(block, "\n") {
				anyChanged = true
			}
			out = append(out, newLines...)
		}
		out = append(out, fence)
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```") && inBlock:
			inBlock = false
			if blockLang != "" {
				flush(line)
			} else {
				out = append(out, block...)
				out = append(out, line)
			}
			block = nil
		case strings.HasPrefix(trimmed, "```"):
			inBlock = true
			blockLang = langs.FromFence(line)
			out = append(out, line)
		case inBlock:
			block = append(block, line)
		default:
			out = append(out, line)
		}
	}
	// An unterminated block is written back untouched.
	if inBlock {
		out = append(out, block...)
	}

	if !anyChanged {
		return nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return fmt.Errorf("format: write %s: %w", path, err)
	}
	return nil
}

// Tree applies File to every .md file under root, logging and continuing
// on per-file failures.
func Tree(root string, run Runner, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := File(path, run, logger); err != nil {
			logger.Warn("format: file failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}
