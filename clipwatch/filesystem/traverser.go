package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Traverser walks directory trees concurrently, one depth level at a time,
// and collects the tracked project files it finds.
type Traverser struct {
	maxWorkers int
	skip       func(path string) bool
	pathUtils  *common.PathUtils
	logger     zerolog.Logger
}

// TraversalStats summarizes one traversal
type TraversalStats struct {
	DirsProcessed int64
	FilesFound    int64
	ErrorsFound   int64
	Duration      time.Duration
}

// NewTraverser creates a traverser. workers <= 0 picks a bound from the CPU
// count suited to I/O bound work.
func NewTraverser(workers int, logger zerolog.Logger) *Traverser {
	if workers <= 0 {
		workers = min(max(runtime.NumCPU()*2, 4), 32)
	}
	return &Traverser{
		maxWorkers: workers,
		pathUtils:  common.NewPathUtils(),
		logger:     logger.With().Str("component", "traverser").Logger(),
	}
}

// WithSkip excludes every path for which skip returns true. A skipped
// directory is not descended into.
func (t *Traverser) WithSkip(skip func(path string) bool) *Traverser {
	t.skip = skip
	return t
}

// FindTracked returns every tracked file below roots, sorted and without
// duplicates. Roots that do not exist are skipped. Symlinked directories are
// not followed.
func (t *Traverser) FindTracked(ctx context.Context, roots []string) ([]string, TraversalStats, error) {
	start := time.Now()
	var stats TraversalStats

	var (
		mu    sync.Mutex
		found = make(map[string]struct{})
		seen  = make(map[string]bool)
	)

	level := make([]string, 0, len(roots))
	for _, root := range roots {
		if !t.pathUtils.IsDir(root) {
			t.logger.Debug().Str("path", root).Msg("Skipping missing root")
			continue
		}
		key := t.pathUtils.CanonicalKey(root)
		if seen[key] {
			continue
		}
		seen[key] = true
		level = append(level, t.pathUtils.NormalizePath(root))
	}

	for len(level) > 0 {
		var next []string

		levelPool := pool.New().WithMaxGoroutines(t.maxWorkers).WithContext(ctx)
		for _, dir := range level {
			levelPool.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}

				children, files, err := t.readDir(dir)
				if err != nil {
					atomic.AddInt64(&stats.ErrorsFound, 1)
					t.logger.Warn().Str("path", dir).Err(err).Msg("Error processing directory")
					return nil
				}
				atomic.AddInt64(&stats.DirsProcessed, 1)

				mu.Lock()
				defer mu.Unlock()
				next = append(next, children...)
				for _, f := range files {
					found[f] = struct{}{}
				}
				return nil
			})
		}

		if err := levelPool.Wait(); err != nil {
			return nil, stats, err
		}
		level = next
	}

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	stats.FilesFound = int64(len(paths))
	stats.Duration = time.Since(start)
	t.logger.Debug().
		Int64("dirs", stats.DirsProcessed).
		Int64("files", stats.FilesFound).
		Int64("errors", stats.ErrorsFound).
		Dur("duration", stats.Duration).
		Msg("Traversal complete")
	return paths, stats, nil
}

// readDir lists one directory, splitting it into subdirectories to visit and
// tracked files
func (t *Traverser) readDir(dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var children, files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if t.skip != nil && t.skip(path) {
			continue
		}

		switch {
		case entry.IsDir():
			children = append(children, path)
		case entry.Type().IsRegular() && t.pathUtils.HasExtension(path, internal.TrackedExtension):
			files = append(files, path)
		}
	}
	return children, files, nil
}
