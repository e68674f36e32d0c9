package watcher

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultQueueCapacity = 256

// activeMonitor is one running OS watch plus the dispatcher draining it
type activeMonitor struct {
	config     WatchConfiguration
	watcher    *FSNotifyWatcher
	dispatcher *Dispatcher
	stop       chan struct{}
	done       chan struct{}
}

// shutdown releases the OS handle and waits for the dispatcher to exit.
// An extraction in progress completes first.
func (m *activeMonitor) shutdown() error {
	close(m.stop)
	err := m.watcher.Close()
	<-m.done
	return err
}

// Session owns at most one active monitor and the configuration it runs
// with. Reconfigure calls are serialized.
type Session struct {
	extractor      Extractor
	notifier       Notifier
	ignorePatterns []string
	queueCapacity  int
	logger         zerolog.Logger
	now            func() time.Time
	newWatcher     func(int, zerolog.Logger) (*FSNotifyWatcher, error)

	mu         sync.Mutex
	config     WatchConfiguration
	active     *activeMonitor
	generation uint64
}

// Option customizes a Session
type Option func(*Session)

// WithLogger sets the logger for session and dispatcher diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithIgnorePatterns skips paths matching gitignore-style patterns relative
// to the watched roots
func WithIgnorePatterns(patterns ...string) Option {
	return func(s *Session) {
		s.ignorePatterns = append([]string(nil), patterns...)
	}
}

// WithClock replaces the time source used for debouncing
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithQueueCapacity sets how many raw events may wait for the dispatcher
func WithQueueCapacity(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// NewSession creates a session that is not watching anything yet
func NewSession(extractor Extractor, notifier Notifier, opts ...Option) *Session {
	s := &Session{
		extractor:     extractor,
		notifier:      notifier,
		queueCapacity: defaultQueueCapacity,
		logger:        zerolog.Nop(),
		now:           time.Now,
		newWatcher:    NewFSNotifyWatcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "watch-session").Logger()
	return s
}

// Reconfigure replaces the watched directory set and debounce interval. A
// configuration equal to the current one is a no-op. Directories that do not
// exist are skipped; an empty set stops watching. If the OS monitor cannot be
// created the error wraps common.ErrWatchSetup and the session is left not
// watching.
func (s *Session) Reconfigure(directories []string, debounce time.Duration) error {
	next := WatchConfiguration{Directories: directories, Debounce: debounce}.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if next.Equal(s.config) {
		return nil
	}

	s.teardownLocked()

	if next.Empty() {
		s.config = next
		s.logger.Info().Msg("Watching stopped")
		return nil
	}

	monitor, err := s.startLocked(next)
	if err != nil {
		return err
	}

	s.active = monitor
	s.config = next
	s.generation++
	return nil
}

// Close stops watching
func (s *Session) Close() error {
	return s.Reconfigure(nil, 0)
}

// Watching reports whether a monitor is active
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Config returns a copy of the current configuration
func (s *Session) Config() WatchConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.clone()
}

// Generation counts monitors installed over the session lifetime
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) teardownLocked() {
	if s.active == nil {
		return
	}
	if err := s.active.shutdown(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing fsnotify watcher")
	}
	s.active = nil
	s.config = WatchConfiguration{}
}

func (s *Session) startLocked(cfg WatchConfiguration) (*activeMonitor, error) {
	fsWatcher, err := s.newWatcher(s.queueCapacity, s.logger)
	if err != nil {
		return nil, err
	}

	watched := 0
	for _, dir := range cfg.Directories {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			s.logger.Debug().Str("path", dir).Msg("Skipping missing watch directory")
			continue
		}
		if err := fsWatcher.AddRecursive(dir); err != nil {
			s.logger.Warn().Str("path", dir).Err(err).Msg("Failed to add path to watcher")
			continue
		}
		watched++
	}

	monitor := &activeMonitor{
		config:     cfg,
		watcher:    fsWatcher,
		dispatcher: newDispatcher(cfg, s.extractor, s.notifier, NewIgnoreMatcher(cfg.Directories, s.ignorePatterns), s.logger, s.now),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	fsWatcher.Start()
	go func() {
		defer close(monitor.done)
		monitor.dispatcher.Run(monitor.stop, fsWatcher.Events())
	}()

	s.logger.Info().
		Strs("directories", cfg.Directories).
		Int("watched", watched).
		Int("subdirectories", fsWatcher.WatchedPaths()).
		Dur("debounce", cfg.Debounce).
		Msg("Watching started")
	return monitor, nil
}
