package protocol

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-loads protocol definitions from a directory while the engine
// runs. New or edited YAML files are parsed and loaded into the registry;
// re-loading an existing ID overwrites its definition. Parse and validation
// failures are logged, never fatal.
type Watcher struct {
	engine  *Engine
	watcher *fsnotify.Watcher
	dir     string
	done    chan struct{}
}

// NewWatcher creates a watcher for the given protocol directory.
func NewWatcher(dir string, engine *Engine) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		engine:  engine,
		watcher: fsw,
		dir:     dir,
		done:    make(chan struct{}),
	}
	go w.watch()
	return w, nil
}

// watch handles file events until Close is called.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if ext := filepath.Ext(event.Name); ext != ".yaml" && ext != ".yml" {
				continue
			}
			w.loadOne(event.Name)
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// loadOne parses and loads a single definition file.
func (w *Watcher) loadOne(path string) {
	p, err := LoadFile(path)
	if err != nil {
		log.Printf("[engine] warning: skipping protocol file %s: %v", path, err)
		return
	}
	if err := w.engine.LoadProtocol(p); err != nil {
		log.Printf("[engine] warning: rejected protocol file %s: %v", path, err)
		return
	}
	log.Printf("[engine] loaded protocol %s from %s", p.ID, filepath.Base(path))
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}
