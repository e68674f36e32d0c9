package watcher

import (
	"context"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/rs/zerolog"
)

// Dispatcher consumes events for one active monitor, one at a time: it
// filters to tracked project files, debounces per canonical path, runs the
// extractor and hands successes to the notifier.
type Dispatcher struct {
	extractor Extractor
	notifier  Notifier
	ledger    *DebounceLedger
	ignore    *IgnoreMatcher
	interval  time.Duration
	pathUtils *common.PathUtils
	logger    zerolog.Logger
	now       func() time.Time
}

func newDispatcher(cfg WatchConfiguration, extractor Extractor, notifier Notifier, ignore *IgnoreMatcher, logger zerolog.Logger, now func() time.Time) *Dispatcher {
	return &Dispatcher{
		extractor: extractor,
		notifier:  notifier,
		ledger:    NewDebounceLedger(),
		ignore:    ignore,
		interval:  cfg.Debounce,
		pathUtils: common.NewPathUtils(),
		logger:    logger,
		now:       now,
	}
}

// Run handles events until events is closed or stop is signalled. An
// extraction already running finishes; no new one starts after stop.
func (d *Dispatcher) Run(stop <-chan struct{}, events <-chan Event) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			select {
			case <-stop:
				return
			default:
			}
			d.handle(event)
		}
	}
}

// relevant reports whether an event can lead to an extraction
func (d *Dispatcher) relevant(event Event) bool {
	switch event.Type {
	case EventCreate, EventWrite:
	default:
		return false
	}
	if !d.pathUtils.HasExtension(event.Path, internal.TrackedExtension) {
		return false
	}
	return !d.ignore.Ignored(event.Path)
}

func (d *Dispatcher) handle(event Event) {
	if !d.relevant(event) {
		return
	}

	key := d.pathUtils.CanonicalKey(event.Path)
	if !d.ledger.Allow(key, d.now(), d.interval) {
		d.logger.Debug().Str("path", key).Msg("Change debounced")
		return
	}

	d.logger.Info().Str("path", key).Str("op", event.Type.String()).Msg("Detected change")

	// Attempts are never cancelled mid-flight
	ctx := context.Background()
	result := d.extractor.Extract(ctx, event.Path)
	if !result.Succeeded() {
		d.logger.Warn().Str("path", key).Str("reason", result.Message).Msg("No thumbnail produced")
		return
	}

	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, result); err != nil {
		d.logger.Error().Str("path", key).Err(err).Msg("Failed to publish thumbnail event")
	}
}
