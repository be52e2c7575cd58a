// Package watcher reports file changes inside a sandbox root.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

// Watcher publishes file.changed events for everything below a root
// directory. New subdirectories are watched as they appear.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	bus     *event.Bus
	ignore  []string
	log     zerolog.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// New creates a watcher over root. Paths matching one of the ignore
// patterns, relative to root, are neither watched nor reported.
func New(root string, bus *event.Bus, ignore ...string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		root:    abs,
		bus:     bus,
		ignore:  ignore,
		log:     logging.Component("watcher"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if err := w.addTree(abs); err != nil {
		fw.Close()
		return nil, err
	}
	w.log.Info().Str("root", abs).Msg("sandbox watcher initialized")
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("sandbox watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || w.ignored(rel) {
		return
	}

	op := opName(ev.Op)
	if op == "" {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn().Err(err).Str("path", rel).Msg("cannot watch new directory")
			}
		}
	}

	if w.bus != nil {
		w.bus.Publish(event.Event{
			Type: event.FileChanged,
			Data: event.FileChangedData{Path: filepath.ToSlash(rel), Op: op},
		})
	}
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A directory removed while walking is not an error.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	}
	return ""
}
