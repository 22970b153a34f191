package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the model manifest for changes.
type Watcher struct {
	path     string
	onReload func(*Manifest, error)
	current  *Manifest
	mu       sync.RWMutex
	reloads  atomic.Uint32
}

// NewWatcher loads the manifest at path and watches it for edits. onReload is
// called with the new manifest (or the validation error) after each change.
func NewWatcher(path string, onReload func(*Manifest, error)) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		onReload: onReload,
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial manifest: %w", err)
	}
	w.current = manifest

	go w.watch()

	return w, nil
}

// watch watches for manifest changes.
func (w *Watcher) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("Failed to create file watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		slog.Error("Failed to watch manifest", "path", w.path, "error", err)
		return
	}

	var timer *time.Timer
	const debounce = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Write == fsnotify.Write {
				if timer != nil {
					timer.Stop()
				}

				timer = time.AfterFunc(debounce, func() {
					w.reload()
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			slog.Error("Watcher error", "error", err)
		}
	}
}

// reload reloads the manifest file.
func (w *Watcher) reload() {
	count := w.reloads.Add(1)
	slog.Info("Reloading manifest", "path", w.path, "count", count)

	manifest, err := LoadManifest(w.path)
	if err != nil {
		slog.Error("Failed to reload manifest", "error", err)
		w.onReload(nil, err)
		return
	}

	w.mu.Lock()
	w.current = manifest
	w.mu.Unlock()

	slog.Info("Manifest reloaded successfully", "count", count)
	w.onReload(manifest, nil)
}

// Snapshot returns the current manifest (thread-safe).
func (w *Watcher) Snapshot() *Manifest {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.current
}

// ReloadCount returns the number of times the manifest has been reloaded.
func (w *Watcher) ReloadCount() uint32 {
	return w.reloads.Load()
}
