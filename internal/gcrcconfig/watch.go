package gcrcconfig

import (
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a policy file, in the same event-loop shape as
// internal/runtime/vfs/watch_fsnotify.go's FSNotifyWatcher
// (channel-based dispatch over fsnotify.Watcher).
type Watcher struct {
	w *fsnotify.Watcher
}

// NewWatcher constructs a Watcher. Callers must call Close when done.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("gcrcconfig: new watcher: %w", err)
	}

	return &Watcher{w: w}, nil
}

// Watch reloads path via Load whenever it changes and invokes apply with
// the new Policy. It runs the watch loop in a new goroutine and returns
// immediately; a malformed reload is logged and skipped rather than
// tearing down the watch, so a transient editor save (file briefly
// invalid mid-write) does not kill live reload.
func (w *Watcher) Watch(path string, apply func(*Policy)) error {
	if err := w.w.Add(path); err != nil {
		return fmt.Errorf("gcrcconfig: watch %s: %w", path, err)
	}

	go w.loop(path, apply)

	return nil
}

func (w *Watcher) loop(path string, apply func(*Policy)) {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			p, err := Load(path)
			if err != nil {
				log.Printf("gcrcconfig: reload %s: %v", path, err)

				continue
			}

			apply(p)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}

			log.Printf("gcrcconfig: watch error: %v", err)
		}
	}
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	return w.w.Close()
}
