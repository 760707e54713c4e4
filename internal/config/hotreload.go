package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the freshly loaded config after a reload.
type ChangeHandler func(cfg *Config)

// Watcher reloads the config file when it changes on disk. The watch is
// registered on the parent directory, not the file, so editors that write
// via rename do not silently kill the watch. Reloads are debounced.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	stop    chan struct{}
	started bool

	mu       sync.Mutex
	handlers []ChangeHandler

	// Debounce delays the reload after the last write event. Defaults to
	// 300ms when zero.
	Debounce time.Duration
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(configPath string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path: configPath,
		fw:   fw,
		stop: make(chan struct{}),
	}, nil
}

// OnChange registers a handler invoked after every successful reload.
func (w *Watcher) OnChange(h ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching. Events for other files in the directory are
// ignored.
func (w *Watcher) Start() error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.started = true
	go w.loop()
	slog.Info("config: watching for changes", "path", w.path)
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	if w.started {
		close(w.stop)
	}
	w.fw.Close()
}

func (w *Watcher) loop() {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	var timer *time.Timer

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.reload)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Error("config: watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config", "error", err)
		return
	}

	w.mu.Lock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, h := range handlers {
		h(cfg)
	}
	slog.Info("config: reloaded", "path", w.path)
}
