package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/types"

	"github.com/rs/zerolog"
)

// ThumbnailGenerated is the event name consumers subscribe to
const ThumbnailGenerated = "thumbnail-generated"

// ErrSinkFull is returned when a channel sink has no free buffer slot
var ErrSinkFull = errors.New("notification buffer full")

// Sink receives successful extraction results
type Sink interface {
	Notify(ctx context.Context, result *types.ExtractionResult) error
}

// ChannelSink delivers results on a buffered channel without blocking the
// dispatcher. When the buffer is full the result is dropped.
type ChannelSink struct {
	ch chan *types.ExtractionResult
}

// NewChannelSink creates a sink with room for capacity pending results
func NewChannelSink(capacity int) *ChannelSink {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelSink{ch: make(chan *types.ExtractionResult, capacity)}
}

// Results returns the receive side of the sink
func (s *ChannelSink) Results() <-chan *types.ExtractionResult {
	return s.ch
}

func (s *ChannelSink) Notify(ctx context.Context, result *types.ExtractionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.ch <- result:
		return nil
	default:
		return fmt.Errorf("%w: dropped result for %s", ErrSinkFull, result.OriginalFile)
	}
}

// WriterSink writes each result as one JSON document per line
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

func (s *WriterSink) Notify(ctx context.Context, result *types.ExtractionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// LogSink records each result as a structured log line
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notify").Logger()}
}

func (s *LogSink) Notify(ctx context.Context, result *types.ExtractionResult) error {
	s.logger.Info().
		Str("event", ThumbnailGenerated).
		Str("original_file", result.OriginalFile).
		Str("thumbnail_small_path", result.SmallPath).
		Str("thumbnail_full_path", result.FullPath).
		Int64("timestamp", result.Timestamp).
		Str("attempt_id", result.AttemptID).
		Msg("Thumbnail generated")
	return nil
}

// MultiSink fans a result out to every sink. All sinks are tried; their
// errors are joined.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, result *types.ExtractionResult) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
