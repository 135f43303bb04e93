package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/keymux/internal/logging"
)

// DefaultDebounce is how long Watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Change reports that watched files were modified.
type Change struct {
	Paths []string
	Time  time.Time
}

// Watcher watches the config file and scripts. Editors often save by
// renaming over the original, so the parent directories are watched and
// events filtered by name.
type Watcher struct {
	mu sync.Mutex

	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logger   *logging.Logger

	changes chan Change
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchLogger sets the logger for watch errors.
func WithWatchLogger(l *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l.WithComponent("config-watcher")
		}
	}
}

// NewWatcher starts watching files.
func NewWatcher(files []string, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   logging.Nop(),
		changes:  make(chan Change, 1),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Changes delivers debounced change notifications. It is closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.changes)
	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			change := Change{Time: time.Now()}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			clear(pending)
			w.send(change)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// send delivers c, merging it into an undelivered notification.
func (w *Watcher) send(c Change) {
	select {
	case w.changes <- c:
		return
	default:
	}
	select {
	case old := <-w.changes:
		c.Paths = append(old.Paths, c.Paths...)
	default:
	}
	select {
	case w.changes <- c:
	case <-w.closeCh:
	}
}
