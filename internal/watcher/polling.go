package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/filesentry/filesentry/internal/sched"
)

// PollWatcher watches a single file by checking its modification timestamp
// at a fixed interval. Timestamp polling needs no operating system support
// and also works on filesystems where change notification is unreliable,
// such as NFS mounts.
//
// When a tick sees a newer timestamp, the watcher arms a debounce callback
// one grace period later instead of notifying immediately. The callback
// re-checks the file: if it changed again during the window, the window
// restarts; once a full grace period passes without a change, the listener
// is notified exactly once.
type PollWatcher struct {
	path     string
	listener ChangeListener
	interval time.Duration
	grace    time.Duration
	sched    *sched.Scheduler
	stopped  atomic.Bool

	// mu serializes the detection tick, the debounce callback, and the
	// baseline capture at construction.
	mu       sync.Mutex
	lastSeen time.Time
	seen     bool
	pending  bool
}

var _ FileWatcher = (*PollWatcher)(nil)

// NewPollWatcher starts watching path and reports settled changes to
// listener. Only modifications after construction are reported: the current
// timestamp is captured as the baseline before the first tick is scheduled.
//
// interval must be positive and grace must be non-negative; grace zero
// notifies on the detecting tick with no delay.
func NewPollWatcher(path string, listener ChangeListener, interval, grace time.Duration) (*PollWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path must not be empty", ErrInvalidConfig)
	}
	if listener == nil {
		return nil, fmt.Errorf("%w: listener must not be nil", ErrInvalidConfig)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be > 0, got %v", ErrInvalidConfig, interval)
	}
	if grace < 0 {
		return nil, fmt.Errorf("%w: grace period must be >= 0, got %v", ErrInvalidConfig, grace)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}

	w := &PollWatcher{
		path:     abs,
		listener: listener,
		interval: interval,
		grace:    grace,
		sched:    sched.New(),
	}

	// Baseline: remember the current timestamp so that pre-existing
	// content is never reported as a change.
	w.mu.Lock()
	w.changed()
	w.mu.Unlock()

	w.sched.Every(interval, interval, w.tick)
	return w, nil
}

// changed reports whether the file's timestamp advanced past the last seen
// value and updates the recorded state. The transition from "exists" to
// "absent" counts as one change; repeated absence does not. Must be called
// with mu held.
func (w *PollWatcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			// Transient read error: log and treat this tick as unchanged.
			slog.Warn("could not check watched file",
				slog.String("path", w.path),
				slog.String("error", err.Error()),
			)
			return false
		}
		if w.seen {
			w.seen = false
			w.lastSeen = time.Time{}
			return true
		}
		return false
	}

	mod := info.ModTime()
	if !w.seen || mod.After(w.lastSeen) {
		w.lastSeen = mod
		w.seen = true
		return true
	}
	return false
}

// tick is the periodic detection routine.
func (w *PollWatcher) tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped.Load() || w.pending {
		return
	}
	if !w.changed() {
		return
	}

	if w.grace > 0 {
		w.pending = true
		w.sched.Once(w.grace, w.settle)
		return
	}
	// Grace disabled: notify on the detecting tick.
	w.notify()
}

// settle runs one grace period after a detected change and decides whether
// the change has settled.
func (w *PollWatcher) settle() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped.Load() {
		return
	}
	if w.changed() {
		// Modified again inside the grace window: wait another one.
		w.sched.Once(w.grace, w.settle)
		return
	}
	w.pending = false
	w.notify()
}

// notify invokes the listener, containing panics so a failing listener
// cannot kill the poll schedule.
func (w *PollWatcher) notify() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("change listener panicked",
				slog.String("path", w.path),
				slog.Any("panic", r),
			)
		}
	}()
	w.listener.FileChanged()
}

// Stop stops polling and cancels any pending debounce callback. No
// notification is delivered after Stop returns. Stop is idempotent and safe
// to call from inside the listener.
func (w *PollWatcher) Stop() {
	if !w.stopped.CompareAndSwap(false, true) {
		return
	}
	w.sched.CancelAll()
}
