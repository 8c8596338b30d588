package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches sound files for changes and invalidates the player's
// decoded-buffer cache so edits take effect on the next playback.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger
	player *Player

	fsw     *fsnotify.Watcher
	watched map[string]bool
	dirs    map[string]bool
	done    chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:  logger,
		player:  player,
		watched: make(map[string]bool),
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
}

// Watch adds a path to the watch list. The containing directory is
// watched, which survives editors that replace files on save.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.watched[path] = true

	dir := filepath.Dir(path)
	if w.fsw != nil && !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
			return
		}
		w.dirs[dir] = true
	}
}

// Start begins watching sound files for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true

	for path := range w.watched {
		dir := filepath.Dir(path)
		if w.dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
	}

	go w.watchLoop(ctx)

	w.logger.Debug("audio watcher started", "paths", len(w.watched))
	return nil
}

// Stop stops watching sound files.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
	w.logger.Debug("audio watcher stopped")
}

// watchLoop processes filesystem events.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			tracked := w.watched[event.Name]
			w.mu.Unlock()

			if tracked {
				w.logger.Debug("sound file changed, invalidating cache", "path", event.Name)
				w.player.InvalidateCache(event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("audio watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}
