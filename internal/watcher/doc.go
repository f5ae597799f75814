// Package watcher notifies a listener when a single watched file has
// settled after a change.
//
// Editors and config writers rarely modify a file in one step: they
// truncate and rewrite, write a temp file and rename it over the target, or
// save several times in quick succession. A naive watcher reports each step.
// Both watchers in this package instead wait out a grace period after every
// detected change and notify exactly once per settled change, when a full
// grace period has passed with no further modification.
//
// Two strategies implement the same contract:
//   - PollWatcher compares the file's modification timestamp at a fixed
//     interval. It works everywhere, including network mounts where OS
//     change notification is unreliable.
//   - NotifyWatcher subscribes to the parent directory through fsnotify and
//     reacts to pushed events. When the parent directory does not exist yet
//     it polls until the file appears, then switches to the subscription.
//
// Usage:
//
//	w, err := watcher.NewNotifyWatcher("/etc/app/config.yaml",
//		watcher.ListenerFunc(reload), watcher.DefaultGracePeriod)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
// Listeners receive no payload; callers re-read the file to pick up the
// new content.
package watcher
