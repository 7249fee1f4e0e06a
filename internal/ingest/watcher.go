package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last write
// event before re-ingesting a file, so editors that write in several
// steps trigger one ingestion, not five.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-ingests course documents as they are created or modified
// under a directory tree.
type Watcher struct {
	pipeline *Pipeline
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over dir. A debounce of 0 selects
// DefaultDebounce; a nil logger falls back to slog.Default().
func NewWatcher(pipeline *Pipeline, dir string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pipeline: pipeline,
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		timers:   map[string]*time.Timer{},
	}
}

// Run watches until the context is cancelled. Every create or write of
// a course document schedules a debounced re-ingestion; directories
// created under the tree are watched as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()
	defer w.stopTimers()

	if err := watchTree(watcher, w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching for course document changes", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := watchTree(watcher, event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
				continue
			}
			if isCourseFile(event.Name) {
				w.scheduleIngest(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

// scheduleIngest (re)arms the debounce timer for one path.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// The file may be gone again by the time the debounce fires.
		w.logger.Warn("Failed to read changed document", "source", path, "error", err)
		return
	}

	result, err := w.pipeline.IngestDocument(ctx, path, string(data))
	if err != nil {
		w.logger.Warn("Failed to re-ingest changed document", "source", path, "error", err)
		return
	}
	w.logger.Info("Re-ingested changed document",
		"source", path, "course", result.CourseTitle, "chunks", result.Chunks)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

// watchTree adds root and every non-hidden directory under it.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
