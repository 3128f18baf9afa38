package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/logger"
)

// ReloadCallback is invoked with the freshly reloaded configuration.
type ReloadCallback func(*Config) error

// Watcher watches a config file for changes and reloads it, debouncing
// rapid successive writes from editors that save in multiple steps.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer
}

// NewWatcher creates a Watcher for the config file at path.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch config file %s", path)
	}

	return &Watcher{
		path:     path,
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
	}, nil
}

// OnReload registers a callback fired after each successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching in a background goroutine. Stop closes the
// underlying fsnotify watcher, which terminates the goroutine.
func (w *Watcher) Start() {
	go w.run()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("config watcher error", logger.FieldError, err.Error())
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	Reset()
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		logger.Errorw("config reload failed", logger.FieldError, err.Error())
		return
	}

	logger.Infow("config reloaded", "path", w.path)

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			logger.Warnw("config reload callback failed", logger.FieldError, err.Error())
		}
	}
}

// Stop stops watching for changes.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
