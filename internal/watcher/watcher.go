// Package watcher hot-reloads the vector index when new block files appear in
// the extracted directory.
package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/models"
)

const debounceInterval = 400 * time.Millisecond

// Inserter receives the embeddable texts of a changed block file. Implemented
// by the vector engine.
type Inserter interface {
	Insert(ctx context.Context, texts []string) (int, error)
}

// Watcher watches the extracted-JSON directory and inserts the blocks of new
// or rewritten files into the vector index. Events for the same file within
// the debounce window collapse into one insert.
type Watcher struct {
	dir      string
	inserter Inserter
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	started bool
}

// New creates a watcher over dir.
func New(dir string, inserter Inserter, logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		inserter: inserter,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Start begins watching. It returns after the watch is registered; events are
// handled on a background goroutine until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}
	w.watcher = fsw
	w.started = true
	w.logger.Info("Watching for new block files", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[ev.Name]; ok {
		t.Stop()
	}
	path := ev.Name
	w.timers[path] = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.insertFile(ctx, path)
	})
}

// insertFile loads one block file and inserts its embeddable texts. Failures
// are logged, never fatal; a later rewrite of the file retries naturally.
func (w *Watcher) insertFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("Failed to read block file", zap.String("path", path), zap.Error(err))
		return
	}
	var blocks []models.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		w.logger.Warn("Failed to parse block file", zap.String("path", path), zap.Error(err))
		return
	}

	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if text := b.EmbeddedText(); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return
	}

	added, err := w.inserter.Insert(ctx, texts)
	if err != nil {
		w.logger.Error("Failed to insert blocks", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("Hot-reloaded block file",
		zap.String("path", path), zap.Int("added", added), zap.Int("texts", len(texts)))
}
