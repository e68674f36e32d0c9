package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/types"
)

// EventType represents the type of file system event
type EventType int

const (
	// EventCreate represents file/directory creation
	EventCreate EventType = iota
	// EventWrite represents file modification
	EventWrite
	// EventRemove represents file/directory removal
	EventRemove
	// EventRename represents file/directory rename
	EventRename
	// EventChmod represents permission changes
	EventChmod
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	case EventChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Extractor produces an extraction result for a changed file. It never
// returns nil and reports failure through the result status.
type Extractor interface {
	Extract(ctx context.Context, path string) *types.ExtractionResult
}

// Notifier receives successful extraction results. Implementations should
// not block for long; errors are logged and not retried.
type Notifier interface {
	Notify(ctx context.Context, result *types.ExtractionResult) error
}

// WatchConfiguration is the directory set and debounce interval a monitor
// runs with. It is replaced as a whole, never edited in place.
type WatchConfiguration struct {
	Directories []string
	Debounce    time.Duration
}

// Equal compares configurations by value; directory order matters.
func (c WatchConfiguration) Equal(other WatchConfiguration) bool {
	return c.Debounce == other.Debounce && slices.Equal(c.Directories, other.Directories)
}

// Empty reports whether the configuration watches nothing
func (c WatchConfiguration) Empty() bool {
	return len(c.Directories) == 0
}

func (c WatchConfiguration) clone() WatchConfiguration {
	return WatchConfiguration{
		Directories: slices.Clone(c.Directories),
		Debounce:    c.Debounce,
	}
}
