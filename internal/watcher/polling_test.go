package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testInterval = 20 * time.Millisecond
	testGrace    = 100 * time.Millisecond
)

func TestPollWatcher_NotifiesAfterSettledChange(t *testing.T) {
	// Given: a watched file with existing content
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "before", base)

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, testGrace)
	require.NoError(t, err)
	defer w.Stop()

	// When: the file is modified once
	writeAt(t, file, "after", base.Add(time.Second))

	// Then: exactly one notification arrives
	rec.waitOne(t, time.Second)
	rec.quietFor(t, 300*time.Millisecond)
}

func TestPollWatcher_BaselineChangesNotReported(t *testing.T) {
	// Given: a file written before the watcher exists
	file := filepath.Join(t.TempDir(), "watched.txt")
	writeAt(t, file, "pre-existing", time.Now())

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, testGrace)
	require.NoError(t, err)
	defer w.Stop()

	// Then: the pre-existing content is never reported
	rec.quietFor(t, 400*time.Millisecond)
}

func TestPollWatcher_CoalescesBurstIntoOneNotification(t *testing.T) {
	// Given: a watched file
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, testGrace)
	require.NoError(t, err)
	defer w.Stop()

	// When: several rapid modifications land within one grace period
	for i := 1; i <= 4; i++ {
		writeAt(t, file, "burst", base.Add(time.Duration(i)*time.Second))
		time.Sleep(testInterval)
	}

	// Then: the burst settles into exactly one notification
	rec.waitOne(t, time.Second)
	rec.quietFor(t, 300*time.Millisecond)
}

func TestPollWatcher_RearmsWhileWritesContinue(t *testing.T) {
	// Given: a watched file
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	rec := newRecorder()
	grace := 150 * time.Millisecond
	w, err := NewPollWatcher(file, rec, testInterval, grace)
	require.NoError(t, err)
	defer w.Stop()

	// When: the file changes, and changes again inside the grace window
	writeAt(t, file, "v1", base.Add(time.Second))
	time.Sleep(grace / 2)
	secondWrite := time.Now()
	writeAt(t, file, "v2", base.Add(2*time.Second))

	// Then: the notification fires no earlier than one grace period after
	// the second modification
	at := rec.waitOne(t, 2*time.Second)
	assert.GreaterOrEqual(t, at.Sub(secondWrite), grace,
		"notification must wait out a full grace period after the last write")
	rec.quietFor(t, 300*time.Millisecond)
}

func TestPollWatcher_ZeroGraceNotifiesOnDetectingTick(t *testing.T) {
	// Given: a watcher with debouncing disabled
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, 0)
	require.NoError(t, err)
	defer w.Stop()

	// When: the file is modified
	writeAt(t, file, "v1", base.Add(time.Second))

	// Then: the notification arrives within a couple of ticks, with no
	// debounce delay
	rec.waitOne(t, 10*testInterval)
}

func TestPollWatcher_DisappearanceIsOneChange(t *testing.T) {
	// Given: a watched file that exists
	file := filepath.Join(t.TempDir(), "watched.txt")
	writeAt(t, file, "content", time.Now())

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, testGrace)
	require.NoError(t, err)
	defer w.Stop()

	// When: the file is deleted
	require.NoError(t, os.Remove(file))

	// Then: exactly one notification, and continued absence stays quiet
	rec.waitOne(t, time.Second)
	rec.quietFor(t, 400*time.Millisecond)
}

func TestPollWatcher_AbsentFileStaysQuietUntilCreated(t *testing.T) {
	// Given: a watcher on a file that does not exist yet
	file := filepath.Join(t.TempDir(), "watched.txt")

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, testGrace)
	require.NoError(t, err)
	defer w.Stop()

	// Then: repeated absence produces nothing
	rec.quietFor(t, 300*time.Millisecond)

	// When: the file appears
	writeAt(t, file, "created", time.Now())

	// Then: one notification
	rec.waitOne(t, time.Second)
	rec.quietFor(t, 300*time.Millisecond)
}

func TestPollWatcher_StopPreventsPendingNotification(t *testing.T) {
	// Given: a watched file with a change awaiting its grace period
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	rec := newRecorder()
	w, err := NewPollWatcher(file, rec, testInterval, 300*time.Millisecond)
	require.NoError(t, err)

	writeAt(t, file, "v1", base.Add(time.Second))
	time.Sleep(2 * testInterval) // let a tick detect the change

	// When: stopped before the grace period elapses
	w.Stop()

	// Then: the pending notification never arrives, and stopping again is
	// harmless
	rec.quietFor(t, 500*time.Millisecond)
	w.Stop()
}

func TestPollWatcher_StopFromListenerDoesNotDeadlock(t *testing.T) {
	// Given: a listener that stops its own watcher. The watcher is handed
	// to the listener through an atomic holder: the tick goroutine is
	// already running when the constructor returns, so a plain variable
	// would race with the assignment.
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	done := make(chan struct{})
	var holder atomic.Pointer[PollWatcher]
	w, err := NewPollWatcher(file, ListenerFunc(func() {
		if w := holder.Load(); w != nil {
			w.Stop()
			close(done)
		}
	}), testInterval, 0)
	require.NoError(t, err)
	holder.Store(w)

	// When: the file changes
	writeAt(t, file, "v1", base.Add(time.Second))

	// Then: the listener runs and Stop completes
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout: Stop called from listener did not complete")
	}
}

func TestPollWatcher_ListenerPanicDoesNotKillSchedule(t *testing.T) {
	// Given: a listener that panics on every notification
	file := filepath.Join(t.TempDir(), "watched.txt")
	base := time.Now()
	writeAt(t, file, "v0", base)

	calls := make(chan struct{}, 8)
	w, err := NewPollWatcher(file, ListenerFunc(func() {
		calls <- struct{}{}
		panic("listener boom")
	}), testInterval, 0)
	require.NoError(t, err)
	defer w.Stop()

	// When: the file changes twice, with time between for each to settle
	writeAt(t, file, "v1", base.Add(time.Second))
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first notification")
	}

	writeAt(t, file, "v2", base.Add(2*time.Second))

	// Then: the second change is still detected
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("panic in listener killed the poll schedule")
	}
}
