package extract

import (
	"bytes"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/extract/extracttest"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialize_DownscaleInvariant(t *testing.T) {
	at := time.Unix(1700000000, 0)
	sizes := []struct{ w, h int }{
		{1200, 800},
		{640, 1600},
		{301, 299},
		{120, 90},
	}

	for _, size := range sizes {
		dir := t.TempDir()
		m := NewMaterializer(300)

		full, thumb, err := m.Materialize(extracttest.PNG(t, size.w, size.h), dir, "piece", at)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "piece_1700000000_full.png"), full)
		assert.Equal(t, filepath.Join(dir, "piece_1700000000_thumb.png"), thumb)

		fullImg, err := imaging.Open(full)
		require.NoError(t, err)
		assert.Equal(t, size.w, fullImg.Bounds().Dx())
		assert.Equal(t, size.h, fullImg.Bounds().Dy())

		thumbImg, err := imaging.Open(thumb)
		require.NoError(t, err)
		tw, th := thumbImg.Bounds().Dx(), thumbImg.Bounds().Dy()
		assert.LessOrEqual(t, max(tw, th), 300)

		// Aspect ratio within one pixel of rounding on the short side
		expected := float64(size.w) / float64(size.h)
		if tw >= th {
			assert.InDelta(t, float64(tw)/expected, float64(th), 1.0)
		} else {
			assert.InDelta(t, float64(th)*expected, float64(tw), 1.0)
		}

		if size.w <= 300 && size.h <= 300 {
			assert.Equal(t, size.w, tw, "small images are not upscaled")
		} else {
			assert.Equal(t, 300, max(tw, th))
		}
	}
}

func TestMaterialize_DecodeError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	_, _, err := NewMaterializer(300).Materialize([]byte("definitely not an image but long enough"), dir, "x", time.Now())
	assert.ErrorIs(t, err, common.ErrDecode)
	assert.NoDirExists(t, dir)
}

func TestMaterialize_WriteError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := NewMaterializer(300).Materialize(extracttest.PNG(t, 10, 10), filepath.Join(blocker, "sub"), "x", time.Now())
	assert.ErrorIs(t, err, common.ErrWrite)
}

func TestMaterialize_ThumbnailWriteFailsKeepsFull(t *testing.T) {
	dir := t.TempDir()
	at := time.Unix(1700000000, 0)
	// A directory where the thumbnail file should go makes only that save fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "piece_1700000000_thumb.png"), 0o755))

	full, thumb, err := NewMaterializer(300).Materialize(extracttest.PNG(t, 600, 400), dir, "piece", at)
	assert.ErrorIs(t, err, common.ErrWrite)
	assert.Empty(t, full)
	assert.Empty(t, thumb)
	assert.FileExists(t, filepath.Join(dir, "piece_1700000000_full.png"))
}

func TestDecode_AcceptsJPEG(t *testing.T) {
	src, err := Decode(extracttest.PNG(t, 8, 4))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}
