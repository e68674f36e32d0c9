package watcher

import (
	"time"

	"github.com/armon/go-radix"
)

// DebounceLedger remembers when each normalized path was last processed.
// Entries are never pruned. It is not safe for concurrent use; the
// dispatcher goroutine owns it.
type DebounceLedger struct {
	tree *radix.Tree
}

// NewDebounceLedger creates an empty ledger
func NewDebounceLedger() *DebounceLedger {
	return &DebounceLedger{tree: radix.New()}
}

// Allow reports whether key may be processed at now. An event less than
// interval after the last accepted one is suppressed and leaves the ledger
// untouched; otherwise the entry moves to now.
func (l *DebounceLedger) Allow(key string, now time.Time, interval time.Duration) bool {
	if prior, ok := l.Last(key); ok && now.Sub(prior) < interval {
		return false
	}
	l.tree.Insert(key, now)
	return true
}

// Last returns the last accepted time for key
func (l *DebounceLedger) Last(key string) (time.Time, bool) {
	v, ok := l.tree.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

// Len returns the number of distinct paths seen
func (l *DebounceLedger) Len() int {
	return l.tree.Len()
}
