// Package sched provides a small cancellable scheduler for one-shot and
// repeating callbacks. Each consumer owns its own Scheduler instance so that
// cancelling one consumer's work never affects another's.
package sched

import (
	"sync"
	"time"
)

// Scheduler runs callbacks on background goroutines after a delay or at a
// fixed period. It is safe for concurrent use. Once CancelAll has been
// called the scheduler is retired: further Once/Every calls are no-ops.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[int]*time.Timer
	next    int
	done    chan struct{}
	stopped bool
}

// New creates a ready-to-use Scheduler.
func New() *Scheduler {
	return &Scheduler{
		timers: make(map[int]*time.Timer),
		done:   make(chan struct{}),
	}
}

// Once schedules fn to run once after delay. A callback that has not started
// when CancelAll is called never runs.
func (s *Scheduler) Once(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	id := s.next
	s.next++
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
}

// Every schedules fn to run after initial and then repeatedly every period.
// The repetition stops when CancelAll is called.
func (s *Scheduler) Every(initial, period time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	done := s.done
	go func() {
		timer := time.NewTimer(initial)
		defer timer.Stop()

		select {
		case <-done:
			return
		case <-timer.C:
		}
		if s.isStopped() {
			return
		}
		fn()

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if s.isStopped() {
					return
				}
				fn()
			}
		}
	}()
}

// CancelAll cancels every scheduled callback and retires the scheduler.
// It is idempotent. Callbacks that are already running may finish; callbacks
// that have not started are discarded.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
