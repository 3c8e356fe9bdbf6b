package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"resumatch/internal/errors"
)

// Watcher watches job and seed files and triggers a vocabulary rebuild when
// they change.
type Watcher struct {
	mu sync.RWMutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for files. onChange runs on the watcher
// goroutine after the debounce delay.
func NewWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	var watched []string
	for _, f := range files {
		if f != "" {
			watched = append(watched, f)
		}
	}

	return &Watcher{
		files:         watched,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("vocabulary watcher is already running")
	}
	if len(w.files) == 0 {
		return fmt.Errorf("vocabulary watcher has no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	for _, file := range w.files {
		if stat, err := os.Stat(file); err == nil {
			w.lastModTime[file] = stat.ModTime()
		}
		// Watching the directory also catches editors that save by rename.
		dir := filepath.Dir(file)
		if err := w.fsWatcher.Add(dir); err != nil && w.logger != nil {
			w.logger.Warn("Failed to watch directory", "directory", dir, "error", err)
		}
	}

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Vocabulary file watcher started",
			"files", w.files,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			if w.logger != nil {
				w.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	if w.logger != nil {
		w.logger.Info("Vocabulary file watcher stopped")
	}
	return nil
}

func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "File watcher error")
			}

		case <-w.reloadChan:
			if w.hasAnyFileChanged() {
				if w.logger != nil {
					w.logger.Info("Job files changed, rebuilding vocabulary")
				}
				w.onChange()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	matches := slices.ContainsFunc(w.files, func(file string) bool {
		return event.Name == file || filepath.Base(event.Name) == filepath.Base(file)
	})
	return matches && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasAnyFileChanged refreshes the recorded modification time of every file.
func (w *Watcher) hasAnyFileChanged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := false
	for _, file := range w.files {
		if w.hasFileChanged(file) {
			changed = true
		}
	}
	return changed
}

// hasFileChanged must be called with w.mu held.
func (w *Watcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if _, seen := w.lastModTime[file]; seen && os.IsNotExist(err) {
			delete(w.lastModTime, file)
			return true
		}
		return false
	}

	lastMod, seen := w.lastModTime[file]
	if !seen || stat.ModTime().After(lastMod) {
		w.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
