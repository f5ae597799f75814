package watcher

import (
	"errors"
	"time"
)

// Default timings. The grace period should be at least as large as the
// timestamp granularity of the underlying filesystem, otherwise a write that
// lands within the same timestamp tick as an earlier one can go undetected.
const (
	// DefaultPollInterval is the default interval between timestamp checks
	// for the polling strategy.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultGracePeriod is the default quiet window a file must hold after
	// a change before the listener is notified. Zero disables debouncing.
	DefaultGracePeriod = 1000 * time.Millisecond
)

// ErrInvalidConfig is wrapped by all construction-time validation failures.
var ErrInvalidConfig = errors.New("invalid watcher configuration")

// FileWatcher watches a single file for settled changes.
type FileWatcher interface {
	// Stop stops watching the file. Once stopped, a watcher cannot be
	// restarted; create a new one instead. Stop is idempotent and delivers
	// no further notifications after it returns.
	Stop()
}

// ChangeListener is notified after a watched file has settled following a
// change. The listener carries no payload: re-read the file to see the new
// content.
type ChangeListener interface {
	FileChanged()
}

// ListenerFunc adapts a plain function to the ChangeListener interface.
type ListenerFunc func()

// FileChanged calls f.
func (f ListenerFunc) FileChanged() { f() }

// Clock supplies the current time. It exists so tests can control the
// logical timestamps used by the event-based debounce.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
