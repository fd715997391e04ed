package cache

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/logger"
)

// DefaultWatchDebounce collapses bursts of writes to one source file
const DefaultWatchDebounce = 500 * time.Millisecond

// ChangeCallback is called with the cleaned path of a changed source file
type ChangeCallback func(path string)

// Watcher reports changes to local vocabulary source files.
// It watches each file's directory, since editors often replace a file by
// renaming over it, which drops a watch on the file itself.
type Watcher struct {
	watcher        *fsnotify.Watcher
	onChange       ChangeCallback
	debouncePeriod time.Duration
	logger         *zap.SugaredLogger

	mu     sync.Mutex
	dirs   map[string]bool
	files  map[string]bool
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher creates a Watcher. Call Start to begin delivering changes.
func NewWatcher(onChange ChangeCallback, debounce time.Duration, l *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	return &Watcher{
		watcher:        fw,
		onChange:       onChange,
		debouncePeriod: debounce,
		logger:         logger.OrDefault(l, "cache.watcher"),
		dirs:           make(map[string]bool),
		files:          make(map[string]bool),
		timers:         make(map[string]*time.Timer),
	}, nil
}

// Add starts tracking path. Adding a tracked path again is a no-op.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	abs = filepath.Clean(abs)
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher is closed")
	}
	if w.files[abs] {
		return nil
	}

	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch directory %s", dir)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true

	w.logger.Debugw("Watching vocabulary source", logger.FieldPath, abs)
	return nil
}

// Watched returns the tracked file paths
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for path := range w.files {
		out = append(out, path)
	}
	return out
}

// Start begins watching for source changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevant == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if !w.tracked(path) {
				continue
			}

			w.logger.Debugw("Vocabulary source changed",
				logger.FieldPath, path,
				"op", event.Op.String())
			w.scheduleChange(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Source watcher error",
				logger.FieldError, err)
		}
	}
}

func (w *Watcher) tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path]
}

// scheduleChange debounces rapid changes to one file
func (w *Watcher) scheduleChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if t := w.timers[path]; t != nil {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debouncePeriod, func() {
		w.mu.Lock()
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()

		if !closed {
			w.onChange(path)
		}
	})
}

// Close stops watching and cancels pending callbacks
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
