package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce matches the teacher's file watcher's default debounce
// window (AleutianLocal's FileWatcherOptions.DebounceWindow), chosen to
// collapse an editor's temp-file-then-rename save into one event.
const DefaultDebounce = 100 * time.Millisecond

// FsWatch is an fsnotify-backed FileWatch. Because inotify watches on a
// single file are broken by editors that save via rename, it watches
// each added path's parent directory and filters events down to the
// exact paths it was asked for.
type FsWatch struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	dirRefs map[string]int
	files   map[string]bool
	timers  map[string]*time.Timer

	events chan Event
	errs   chan error
	done   chan struct{}
	once   sync.Once
}

// New starts an FsWatch with the given debounce window. A zero debounce
// uses DefaultDebounce.
func New(debounce time.Duration) (*FsWatch, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	raw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FsWatch{
		watcher:  raw,
		debounce: debounce,
		dirRefs:  make(map[string]int),
		files:    make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		events:   make(chan Event, 256),
		errs:     make(chan error, 16),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *FsWatch) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirRefs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirRefs[dir]++
	w.files[abs] = true
	return nil
}

func (w *FsWatch) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirRefs[dir]--
	if w.dirRefs[dir] <= 0 {
		delete(w.dirRefs, dir)
		return w.watcher.Remove(dir)
	}
	return nil
}

func (w *FsWatch) Events() <-chan Event { return w.events }
func (w *FsWatch) Errors() <-chan error { return w.errs }

// Close stops the watcher. Events() and Errors() are not closed by Close:
// callers stop reading from them once Close returns, selecting on done
// would otherwise race the debounce timers still in flight.
func (w *FsWatch) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *FsWatch) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			case <-w.done:
				return
			}
		}
	}
}

func (w *FsWatch) handle(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	watched := w.files[abs]
	w.mu.Unlock()
	if !watched {
		return
	}

	op := translateOp(ev.Op)

	w.mu.Lock()
	if t, ok := w.timers[abs]; ok {
		t.Stop()
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, abs)
		w.mu.Unlock()
		select {
		case w.events <- Event{Path: abs, Op: op}:
		case <-w.done:
		}
	})
	w.mu.Unlock()
}

func translateOp(op fsnotify.Op) Op {
	switch {
	case op&fsnotify.Remove != 0:
		return OpRemoved
	case op&fsnotify.Create != 0:
		return OpCreated
	case op&fsnotify.Rename != 0:
		return OpRemoved
	default:
		return OpModified
	}
}
