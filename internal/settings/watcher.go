package settings

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a file's modification time and calls a callback whenever it
// moves forward.
type Watcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	baseline time.Time
	onChange func()
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher records the current modification time of path as the baseline.
// A missing file has a zero baseline, so creating it counts as a change.
func NewWatcher(path string, checkInterval time.Duration) *Watcher {
	w := &Watcher{
		path:          path,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
	w.ResetBaseline()
	return w
}

// OnChange sets the callback. It runs on the watcher goroutine.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop ends polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// ResetBaseline makes the file's current modification time the new baseline.
func (w *Watcher) ResetBaseline() {
	var mod time.Time
	if info, err := os.Stat(w.path); err == nil {
		mod = info.ModTime()
	}
	w.mu.Lock()
	w.baseline = mod
	w.mu.Unlock()
}

func (w *Watcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if cb := w.check(); cb != nil {
				cb()
			}
		}
	}
}

// check advances the baseline and returns the callback if the file changed.
func (w *Watcher) check() func() {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().After(w.baseline) {
		return nil
	}
	w.baseline = info.ModTime()
	return w.onChange
}
