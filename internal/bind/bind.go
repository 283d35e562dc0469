// Package bind assembles a publishable book from a literate source tree.
//
// The input tree is first copied in full to a scratch directory so that
// placeholder references can resolve against every source file (not just
// the Markdown documents). Placeholders are inlined in the scratch copy,
// then only the resulting Markdown files are copied to the output tree.
// The input tree is never modified.
package bind

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossdal/loom/internal/placeholder"
)

// scratchName is the working directory created inside the output folder.
const scratchName = ".loom-scratch"

// Tree binds the Markdown documents under src into dst.
func Tree(src, dst string, logger *slog.Logger) error {
	scratch := filepath.Join(dst, scratchName)
	_ = os.RemoveAll(scratch)
	if err := CopyDir(src, scratch); err != nil {
		return fmt.Errorf("bind: copy to scratch: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := placeholder.ResolveTree(scratch, logger); err != nil {
		return fmt.Errorf("bind: inline placeholders: %w", err)
	}
	if err := copyMarkdown(scratch, dst); err != nil {
		return fmt.Errorf("bind: collect markdown: %w", err)
	}
	logger.Info("bind: complete", slog.String("output", dst))
	return nil
}

// CopyDir recursively copies all contents of src into dst.
func CopyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// copyMarkdown copies only .md files from src to dst, preserving the
// directory structure.
func copyMarkdown(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		if e.IsDir() {
			if err := copyMarkdown(srcPath, filepath.Join(dst, e.Name())); err != nil {
				return err
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			if err := copyFile(srcPath, filepath.Join(dst, e.Name())); err != nil {
				return err
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
