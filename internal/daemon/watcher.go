package daemon

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher watches the configuration file and invokes a callback
// when it changes. The engine runs on an immutable config snapshot, so
// the callback typically just tells the user a restart is needed.
type ConfigWatcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	path     string
	onChange func()

	// Debounce window: editors fire several events per save.
	debounce time.Duration
	lastFire time.Time

	done    chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the given config file path.
func NewConfigWatcher(path string, onChange func(), logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ConfigWatcher{
		logger:   logger,
		watcher:  watcher,
		path:     path,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the config file's directory.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory containing the file (more reliable for writes)
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()

	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// watch is the main watch loop.
func (w *ConfigWatcher) watch() {
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			fire := time.Since(w.lastFire) >= w.debounce
			if fire {
				w.lastFire = time.Now()
			}
			w.mu.Unlock()

			if fire {
				w.logger.Info("config file changed", "path", w.path)
				if w.onChange != nil {
					w.onChange()
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the config watcher.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}
