package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Watcher polls a config file and reloads it when its modification time
// moves forward. It lets the daemon pick up new tracing parameters without
// a restart.
type Watcher struct {
	path          string
	checkInterval time.Duration
	onChange      func(*Config)
	onError       func(error)

	mu       sync.Mutex // serializes Check
	baseline time.Time

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher creates a watcher for path. Returns nil if the file cannot be
// stat'ed.
func NewWatcher(path string, checkInterval time.Duration) *Watcher {
	// Resolve symlinks so edits through a linked path are seen
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return &Watcher{
		path:          path,
		baseline:      info.ModTime(),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// OnChange sets the callback invoked with every successfully reloaded config.
// The callback runs on the goroutine calling Check. Set callbacks before
// Start.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.onChange = callback
}

// OnError sets the callback invoked when a changed file fails to load.
func (w *Watcher) OnError(callback func(error)) {
	w.onError = callback
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	w.started = true
	go w.watchLoop()
}

// Stop ends polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started {
		<-w.done
	}
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reloads the file if it changed since the last check and reports
// whether it did. It may be called while the polling goroutine runs; the
// callbacks never run concurrently.
func (w *Watcher) Check() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil || !info.ModTime().After(w.baseline) {
		return false
	}
	// Advance even on a bad file so a broken edit is reported once.
	w.baseline = info.ModTime()

	cfg, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return false
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return true
}
