// Package watch monitors a source tree and triggers debounced rebuilds.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mossdal/loom/internal/checksum"
)

// debounceWindow batches bursts of filesystem events (editor saves,
// directory copies) into one rebuild.
const debounceWindow = 200 * time.Millisecond

// Rebuild is invoked after the debounce window with the set of changed
// paths, relative to the watched root.
type Rebuild func(changed []string)

// Tree starts an fsnotify watcher on root and processes file change
// events until ctx is cancelled. Writes that leave a file's content
// unchanged are skipped via checksum comparison. New directories created
// at runtime are automatically added to the watch list.
func Tree(ctx context.Context, root string, logger *slog.Logger, onChange Rebuild) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	sums := make(map[string]string)
	seedChecksums(root, sums)

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounceWindow)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounceWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]struct{})
			logger.Debug("watcher: rebuild", slog.Int("changed", len(changed)))
			if onChange != nil {
				onChange(changed)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories are added to the watcher and their
			// existing files queued for the next rebuild.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					queueDir(root, absPath, sums, pending)
					scheduleFlush()
					continue
				}
			}

			if skipPath(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(absPath)
				if readErr != nil {
					continue
				}
				sum := checksum.Sum(data)
				if sums[rel] == sum {
					// Touch without content change.
					continue
				}
				sums[rel] = sum
				pending[rel] = struct{}{}
				scheduleFlush()

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if _, known := sums[rel]; known {
					delete(sums, rel)
					pending[rel] = struct{}{}
					scheduleFlush()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// seedChecksums records the initial content digests so the first write
// event on an unchanged file does not trigger a rebuild.
func seedChecksums(root string, sums map[string]string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || skipPath(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		sums[rel] = checksum.Sum(data)
		return nil
	})
}

// queueDir queues every file in a newly created directory.
func queueDir(root, dirPath string, sums map[string]string, pending map[string]struct{}) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || skipPath(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		sums[rel] = checksum.Sum(data)
		pending[rel] = struct{}{}
		return nil
	})
}

// skipPath filters hidden files and editor temp artifacts.
func skipPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
