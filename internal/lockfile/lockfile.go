// Package lockfile guards against concurrent filesentry instances using a
// cross-process file lock.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock is a cross-process exclusive lock. It prevents two watch
// processes from racing on the same lock file, which would double every
// notification side effect.
type InstanceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock backed by the given file path. The file is created on
// first acquisition.
func New(path string) *InstanceLock {
	return &InstanceLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking. It returns false
// when another process holds it.
func (l *InstanceLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Calling it without holding the lock is a no-op.
func (l *InstanceLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.path
}
