package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/filesentry/filesentry/internal/sched"
)

// NotifyWatcher watches a single file through the operating system's change
// notification facility (fsnotify). The subscription covers the file's
// parent directory; events for other entries in the directory are filtered
// out by name.
//
// OS events can arrive in bursts far faster than a timestamp poll could
// distinguish, so debouncing uses logical timestamps instead of a pending
// flag: every matching event records its arrival time and arms a callback
// one grace period later. A callback notifies only if its event is still
// the newest one and has not been delivered yet, so of a whole burst only
// the callback armed by the last event fires.
//
// If the parent directory does not exist at construction time, the watcher
// delegates to an internal PollWatcher. The first settled change implies
// the directory now exists; the delegate is torn down, the subscription
// takes over, and the notification is forwarded.
type NotifyWatcher struct {
	path     string // absolute path of the watched file
	dir      string
	base     string
	listener ChangeListener
	grace    time.Duration
	clock    Clock
	sched    *sched.Scheduler
	stopped  atomic.Bool

	mu            sync.Mutex
	fsw           *fsnotify.Watcher
	delegate      *PollWatcher
	lastChanged   time.Time
	lastProcessed time.Time
}

var _ FileWatcher = (*NotifyWatcher)(nil)

// NewNotifyWatcher starts watching path and reports settled changes to
// listener. Construction fails if the path has no parent directory (a
// filesystem root) or if the directory subscription cannot be registered.
// A missing parent directory is not an error: the watcher polls until the
// file appears.
func NewNotifyWatcher(path string, listener ChangeListener, grace time.Duration) (*NotifyWatcher, error) {
	return newNotifyWatcher(path, listener, grace, systemClock{}, DefaultPollInterval)
}

// NewNotifyWatcherWithClock is NewNotifyWatcher with an injectable time
// source for the debounce timestamps.
func NewNotifyWatcherWithClock(path string, listener ChangeListener, grace time.Duration, clock Clock) (*NotifyWatcher, error) {
	if clock == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
	}
	return newNotifyWatcher(path, listener, grace, clock, DefaultPollInterval)
}

func newNotifyWatcher(path string, listener ChangeListener, grace time.Duration, clock Clock, pollInterval time.Duration) (*NotifyWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path must not be empty", ErrInvalidConfig)
	}
	if listener == nil {
		return nil, fmt.Errorf("%w: listener must not be nil", ErrInvalidConfig)
	}
	if grace < 0 {
		return nil, fmt.Errorf("%w: grace period must be >= 0, got %v", ErrInvalidConfig, grace)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if dir == abs {
		return nil, fmt.Errorf("%w: %s has no parent directory", ErrInvalidConfig, abs)
	}

	w := &NotifyWatcher{
		path:     abs,
		dir:      dir,
		base:     filepath.Base(abs),
		listener: listener,
		grace:    grace,
		clock:    clock,
		sched:    sched.New(),
	}

	if dirExists(dir) {
		if err := w.subscribe(); err != nil {
			return nil, fmt.Errorf("watch %s: %w", abs, err)
		}
		return w, nil
	}

	// Parent directory is missing. Poll until the file shows up: a write to
	// the file implies its directory was created, at which point we can
	// switch to the subscription.
	if err := w.startDelegate(pollInterval); err != nil {
		return nil, err
	}
	return w, nil
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// startDelegate installs a PollWatcher whose first settled change switches
// this watcher over to the directory subscription.
func (w *NotifyWatcher) startDelegate(pollInterval time.Duration) error {
	d, err := NewPollWatcher(w.path, ListenerFunc(func() {
		w.adoptSubscription(pollInterval)
	}), pollInterval, w.grace)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.stopped.Load() {
		// Stop already drained the previous delegate; installing a new one
		// now would leak its polling goroutine.
		w.mu.Unlock()
		d.Stop()
		return nil
	}
	w.delegate = d
	w.mu.Unlock()
	return nil
}

// adoptSubscription tears down the delegate, switches to the directory
// subscription and forwards the delegate's notification to the listener.
func (w *NotifyWatcher) adoptSubscription(pollInterval time.Duration) {
	if w.stopped.Load() {
		return
	}

	w.mu.Lock()
	d := w.delegate
	w.delegate = nil
	w.mu.Unlock()
	if d != nil {
		d.Stop()
	}

	if err := w.subscribe(); err != nil {
		// The directory check raced with its removal, or registration
		// failed. Keep polling and retry the switch on the next change.
		slog.Warn("could not switch to directory subscription, still polling",
			slog.String("path", w.path),
			slog.String("error", err.Error()),
		)
		if derr := w.startDelegate(pollInterval); derr != nil {
			slog.Error("could not restart polling delegate",
				slog.String("path", w.path),
				slog.String("error", derr.Error()),
			)
		}
	}

	w.notify()
}

// subscribe registers the directory subscription and starts the event loop.
func (w *NotifyWatcher) subscribe() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create directory subscription: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("subscribe to %s: %w", w.dir, err)
	}

	w.mu.Lock()
	if w.stopped.Load() {
		w.mu.Unlock()
		_ = fsw.Close()
		return nil
	}
	w.fsw = fsw
	w.mu.Unlock()

	go w.eventLoop(fsw)
	return nil
}

// eventLoop blocks on the directory subscription and arms the debounce for
// every event that names the watched file. It exits when the subscription
// is closed.
func (w *NotifyWatcher) eventLoop(fsw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.arm()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Includes queue overflow. Steady-state errors never kill the
			// subscription.
			slog.Warn("directory subscription error",
				slog.String("path", w.path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// arm records the event time and schedules the settled check one grace
// period later.
func (w *NotifyWatcher) arm() {
	if w.stopped.Load() {
		return
	}
	if w.grace == 0 {
		w.notify()
		return
	}

	stamp := w.clock.Now()
	w.mu.Lock()
	w.lastChanged = stamp
	w.mu.Unlock()

	w.sched.Once(w.grace, func() {
		w.mu.Lock()
		// Fire only if no newer event arrived during the grace window and
		// this event has not been delivered yet. Whichever event is
		// logically last wins, regardless of callback firing order.
		fire := stamp.Equal(w.lastChanged) && w.lastProcessed.Before(w.lastChanged)
		if fire {
			w.lastProcessed = w.lastChanged
		}
		w.mu.Unlock()

		if fire && !w.stopped.Load() {
			w.notify()
		}
	})
}

func (w *NotifyWatcher) notify() {
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

// Stop closes the directory subscription, stops a still-active polling
// delegate and cancels scheduled callbacks. Stop is idempotent; close
// errors are logged, never returned.
func (w *NotifyWatcher) Stop() {
	if !w.stopped.CompareAndSwap(false, true) {
		return
	}

	w.mu.Lock()
	fsw := w.fsw
	w.fsw = nil
	d := w.delegate
	w.delegate = nil
	w.mu.Unlock()

	if fsw != nil {
		if err := fsw.Close(); err != nil {
			slog.Info("could not close directory subscription",
				slog.String("path", w.path),
				slog.String("error", err.Error()),
			)
		}
	}
	if d != nil {
		d.Stop()
	}
	w.sched.CancelAll()
}
