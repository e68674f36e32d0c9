package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FSNotifyWatcher turns fsnotify notifications into Events and keeps
// directories created under a watched root registered, since fsnotify does
// not watch recursively on its own.
type FSNotifyWatcher struct {
	watcher      *fsnotify.Watcher
	eventChan    chan Event
	logger       zerolog.Logger
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	mu           sync.Mutex
	watchedPaths map[string]bool
}

// NewFSNotifyWatcher creates the OS-level watch handle
func NewFSNotifyWatcher(queueCapacity int, logger zerolog.Logger) (*FSNotifyWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrWatchSetup, err)
	}

	return &FSNotifyWatcher{
		watcher:      fsWatcher,
		eventChan:    make(chan Event, queueCapacity),
		logger:       logger,
		done:         make(chan struct{}),
		watchedPaths: make(map[string]bool),
	}, nil
}

// Start begins forwarding events. Paths should be added first.
func (w *FSNotifyWatcher) Start() {
	w.wg.Add(1)
	go w.watchLoop()
}

// Events returns the event channel. It is closed after Close.
func (w *FSNotifyWatcher) Events() <-chan Event {
	return w.eventChan
}

// AddRecursive watches root and every directory below it
func (w *FSNotifyWatcher) AddRecursive(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("failed to add root path %s: %w", root, err)
	}
	w.watchedPaths[root] = true

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn().Str("path", path).Err(err).Msg("Failed to read directory while adding watches")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || w.watchedPaths[path] {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			// Don't return error, continue with other directories
			w.logger.Warn().Str("path", path).Err(err).Msg("Failed to add subdirectory to watcher")
			return nil
		}
		w.watchedPaths[path] = true
		return nil
	})
}

// WatchedPaths returns the number of directories currently registered
func (w *FSNotifyWatcher) WatchedPaths() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watchedPaths)
}

// Close releases the OS handle, stops the loop and closes the event channel.
func (w *FSNotifyWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.eventChan)
	})
	return err
}

func (w *FSNotifyWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				w.addIfDirectory(event.Name)
			}

			watcherEvent := w.convertEvent(event)
			if watcherEvent == nil {
				continue
			}

			select {
			case w.eventChan <- *watcherEvent:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("File system watcher error")
		}
	}
}

func (w *FSNotifyWatcher) addIfDirectory(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.AddRecursive(path); err != nil {
		w.logger.Warn().Str("path", path).Err(err).Msg("Failed to watch new directory")
	}
}

// convertEvent converts fsnotify.Event to watcher.Event
func (w *FSNotifyWatcher) convertEvent(event fsnotify.Event) *Event {
	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Remove):
		eventType = EventRemove
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	case event.Has(fsnotify.Chmod):
		eventType = EventChmod
	default:
		return nil // Ignore unknown events
	}

	return &Event{
		Type:      eventType,
		Path:      event.Name,
		Timestamp: time.Now(),
	}
}
