package analyzer

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces filesystem events into ClearCache+BuildCached calls.
// This is a supplemental CLI mode (SPEC_FULL.md DOMAIN STACK) — the
// Update Hook that spec.md §4.G describes is driven by the session's
// changed_files set, not by this watcher; nothing in the Agent Loop
// invokes it. Grounded on the debounce shape of the teacher's
// pkg/index/watcher.go.
type Watcher struct {
	driver     *Driver
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	onRebuild  func(error)
	mu         sync.Mutex
	pending    map[string]time.Time
	stopCh     chan struct{}
}

// NewWatcher creates a Watcher over driver's project root with the given
// debounce window.
func NewWatcher(driver *Driver, debounce time.Duration, onRebuild func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		driver:    driver,
		fsw:       fsw,
		debounce:  debounce,
		onRebuild: onRebuild,
		pending:   map[string]time.Time{},
		stopCh:    make(chan struct{}),
	}, nil
}

// Start adds the project root and every directory holding a discovered
// source file to the watch set and begins the debounce loop. Directories
// created after Start are not added. Start returns once the initial directory walk
// completes; the loop itself runs until Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirectories(); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop terminates the watch loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
}

func (w *Watcher) addDirectories() error {
	files, err := w.driver.discover()
	if err != nil {
		return err
	}
	dirs := map[string]bool{}
	dirs[w.driver.root] = true
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			continue // best-effort: a single unwatchable directory doesn't abort the watch
		}
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			w.pending[ev.Name] = time.Now()
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	hasPending := len(w.pending) > 0
	w.pending = map[string]time.Time{}
	w.mu.Unlock()

	if !hasPending {
		return
	}

	if err := w.driver.ClearCache(); err != nil {
		if w.onRebuild != nil {
			w.onRebuild(err)
		}
		return
	}
	_, _, err := w.driver.BuildCached(ctx)
	if w.onRebuild != nil {
		w.onRebuild(err)
	}
}
