package config

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Live holds an atomically-swappable Document so concurrent readers never
// observe a half-written struct. Corpora/workers inside any in-flight Run
// are still treated as immutable for that Run's lifetime — Reload only
// affects Documents fetched by future Runs.
type Live struct {
	ptr atomic.Pointer[Document]
}

// NewLive wraps an initial Document for hot-reload.
func NewLive(doc Document) *Live {
	l := &Live{}
	l.ptr.Store(&doc)
	return l
}

// Get returns the current Document snapshot.
func (l *Live) Get() Document {
	return *l.ptr.Load()
}

// Watch reloads the document from path whenever the file changes on disk,
// debounced by 100ms to collapse editor save storms into a single reload.
// Invalid reloads are logged and ignored — the last good Document stays
// live rather than crashing the process.
func (l *Live) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		doc, err := Load(path)
		if err != nil {
			logger.Warn("config reload failed, keeping previous document", "error", err)
			return
		}
		l.ptr.Store(&doc)
		logger.Info("config reloaded", "path", path)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, reload)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", werr)
		}
	}
}
