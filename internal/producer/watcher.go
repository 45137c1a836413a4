package producer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/evmgr/internal/event"
)

// Errors returned by Watcher.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrAlreadyWatching = errors.New("path is already being watched")
)

// Op is a bit set of file system operations. It is posted as the event
// parameter.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// String returns the names of the set bits joined with '|'.
func (op Op) String() string {
	names := []struct {
		op   Op
		name string
	}{
		{OpCreate, "create"},
		{OpWrite, "write"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{OpChmod, "chmod"},
	}
	s := ""
	for _, n := range names {
		if op&n.op == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	if s == "" {
		return "none"
	}
	return s
}

// convertOp converts fsnotify.Op to Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

// Watcher posts (code, op) for every file system change under its watched
// paths. Directories created under a watched directory are watched too.
type Watcher struct {
	poster
	code int

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	paths   map[string]bool
	closed  bool

	errors atomic.Uint64
}

// NewWatcher creates a watcher. Call Watch to add paths and Close when done.
func NewWatcher(q Queuer, code int, pri event.Priority, opts ...Option) (*Watcher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		poster:  poster{q: q, pri: pri, logger: o.logger},
		code:    code,
		watcher: fsw,
		paths:   make(map[string]bool),
	}, nil
}

// Watch starts watching a file or directory. Directory contents are not
// watched recursively.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	if w.paths[absPath] {
		return ErrAlreadyWatching
	}

	if err := w.watcher.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = true

	w.logger.Debug().Str("path", absPath).Msg("watching")
	return nil
}

// WatchedPaths returns the number of watched paths.
func (w *Watcher) WatchedPaths() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.paths)
}

// Run posts file system events until ctx is done or the watcher is closed.
// It returns nil in both cases.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.errors.Add(1)
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// handleFSEvent posts one fsnotify event.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	w.logger.Debug().Str("path", fsEvent.Name).Stringer("op", op).Msg("file system event")
	w.post(w.code, int(op))

	if op&OpCreate != 0 {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			_ = w.Watch(fsEvent.Name)
		}
	}
}

// Errors returns the number of errors reported by the file system watcher.
func (w *Watcher) Errors() uint64 {
	return w.errors.Load()
}

// Stats returns the watcher's counters.
func (w *Watcher) Stats() Stats {
	return w.stats()
}

// Close stops watching all paths. Run returns once Close has been called.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	return w.watcher.Close()
}
