// Package watch implements the optional --watch live-reload: it monitors
// the source file's directory and delivers a freshly-parsed Project to the
// UI loop over a channel whenever the file changes.
package watch

import (
	"fmt"
	"path/filepath"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/ifcaudit/internal/ifc"
	"github.com/coolbeans/ifcaudit/internal/step"
)

// Event carries either a freshly-built Project or a reload failure. The UI
// loop applies events between its own iterations and never while a render
// or key-handling step is in progress.
type Event struct {
	Project *ifc.Project
	Err     error
}

// Watcher reparses path whenever the containing directory reports a write
// or create event for it, delivering the result over Events.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	Events  chan Event
	stop    chan struct{}
}

// New starts watching the directory containing path. The watcher watches
// the directory rather than the file itself so that editors which replace
// a file via rename-into-place are still observed.
func New(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	w := &Watcher{
		path:    path,
		watcher: fw,
		Events:  make(chan Event, 1),
		stop:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			table, err := step.ParseFile(w.path)
			if err != nil {
				w.Events <- Event{Err: err}
				continue
			}
			w.Events <- Event{Project: ifc.Extract(table, w.path)}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Events <- Event{Err: err}
		}
	}
}

// Close stops the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}
