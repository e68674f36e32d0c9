package extract

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/disintegration/imaging"
)

// Materializer writes a decoded preview at full size plus a bounded thumbnail.
type Materializer struct {
	// MaxDimension bounds both sides of the thumbnail
	MaxDimension int
	Filter       imaging.ResampleFilter
}

// NewMaterializer creates a materializer using Lanczos resampling
func NewMaterializer(maxDimension int) *Materializer {
	return &Materializer{
		MaxDimension: maxDimension,
		Filter:       imaging.Lanczos,
	}
}

// Decode parses blob as an image, honouring EXIF orientation when present.
func Decode(blob []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(blob), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecode, err)
	}
	return img, nil
}

// Materialize decodes blob and saves <base>_<unix>_full.png and
// <base>_<unix>_thumb.png in destDir. A full image already written is left in
// place when the thumbnail cannot be saved.
func (m *Materializer) Materialize(blob []byte, destDir, baseName string, at time.Time) (string, string, error) {
	img, err := Decode(blob)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", "", fmt.Errorf("%w: create %s: %w", common.ErrWrite, destDir, err)
	}

	stamp := at.Unix()
	fullPath := filepath.Join(destDir, fmt.Sprintf("%s_%d_full.png", baseName, stamp))
	thumbPath := filepath.Join(destDir, fmt.Sprintf("%s_%d_thumb.png", baseName, stamp))

	if err := imaging.Save(img, fullPath); err != nil {
		return "", "", fmt.Errorf("%w: save full image: %w", common.ErrWrite, err)
	}

	thumb := imaging.Fit(img, m.MaxDimension, m.MaxDimension, m.Filter)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", "", fmt.Errorf("%w: save thumbnail: %w", common.ErrWrite, err)
	}

	return fullPath, thumbPath, nil
}
