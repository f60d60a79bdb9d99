package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/quire/internal/storage"
)

const rebuildDebounce = 200 * time.Millisecond

// ReloadCallback is called after the watcher swaps in a rebuilt artifact.
type ReloadCallback func(a *Artifact)

// Watch rebuilds the artifact in holder whenever Markdown files under root
// change, until ctx is cancelled. Bursts of events are debounced into one
// rebuild. A failed rebuild is logged and the previous artifact stays live.
// Intended for local preview; production builds run once via BuildIndex.
func Watch(ctx context.Context, store storage.Provider, root string, opts LoadOptions, holder *Holder, cb ReloadCallback) error {
	logger := opts.logger()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(rebuildDebounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(rebuildDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rebuildCh:
			rebuild(ctx, store, opts, holder, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRebuild()
					continue
				}
			}

			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			// A removed or renamed directory arrives as one event without a
			// Markdown extension but may take articles with it.
			removed := ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			changed := storage.IsMarkdown(ev.Name) && ev.Op&(fsnotify.Create|fsnotify.Write) != 0
			if removed || changed {
				logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				scheduleRebuild()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func rebuild(ctx context.Context, store storage.Provider, opts LoadOptions, holder *Holder, logger *slog.Logger, cb ReloadCallback) {
	start := time.Now()
	a, err := BuildIndex(ctx, store, opts)
	if err != nil {
		logger.Error("watcher: rebuild failed, keeping previous index", slog.String("error", err.Error()))
		return
	}
	holder.Store(a)
	logger.Info("watcher: rebuilt",
		slog.Int("documents", a.Len()),
		slog.Duration("took", time.Since(start)))
	if cb != nil {
		cb(a)
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
