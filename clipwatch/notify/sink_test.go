package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(name string) *types.ExtractionResult {
	return types.NewSuccessResult("attempt-1", "/art/"+name+".clip",
		"/thumbs/"+name+"_1710000000_full.png", "/thumbs/"+name+"_1710000000_thumb.png",
		time.Unix(1710000000, 0), nil)
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(1)
	ctx := context.Background()

	require.NoError(t, sink.Notify(ctx, sampleResult("a")))
	err := sink.Notify(ctx, sampleResult("b"))
	assert.ErrorIs(t, err, ErrSinkFull)

	got := <-sink.Results()
	assert.Equal(t, "/art/a.clip", got.OriginalFile)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, sink.Notify(cancelled, sampleResult("c")), context.Canceled)
}

func TestWriterSink_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.Notify(context.Background(), sampleResult("a")))
	require.NoError(t, sink.Notify(context.Background(), sampleResult("b")))

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]any
	for scanner.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		lines = append(lines, doc)
	}
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "success", first["status"])
	assert.Equal(t, "/art/a.clip", first["original_file"])
	assert.Equal(t, "/thumbs/a_1710000000_thumb.png", first["thumbnail_small_path"])
	assert.Equal(t, "/thumbs/a_1710000000_full.png", first["thumbnail_full_path"])
	assert.Equal(t, first["thumbnail_full_path"], first["thumbnail_path"])
	assert.EqualValues(t, 1710000000, first["timestamp"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterSink_WriteError(t *testing.T) {
	sink := NewWriterSink(failingWriter{})
	assert.Error(t, sink.Notify(context.Background(), sampleResult("a")))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	require.NoError(t, sink.Notify(context.Background(), sampleResult("a")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ThumbnailGenerated, line["event"])
	assert.Equal(t, "notify", line["component"])
	assert.Equal(t, "/thumbs/a_1710000000_thumb.png", line["thumbnail_small_path"])
}

func TestMultiSink(t *testing.T) {
	full := NewChannelSink(1)
	require.NoError(t, full.Notify(context.Background(), sampleResult("x")))

	var buf bytes.Buffer
	multi := MultiSink{full, nil, NewWriterSink(&buf), NewWriterSink(failingWriter{})}

	err := multi.Notify(context.Background(), sampleResult("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSinkFull)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, buf.String(), "/art/a.clip", "a failing sink does not stop the others")

	assert.NoError(t, MultiSink{}.Notify(context.Background(), sampleResult("a")))
}
