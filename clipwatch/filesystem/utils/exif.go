package utils

import (
	"bytes"
	"io"

	exiflib "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExtractEXIFBytes returns a flat map of EXIF tag names to their string
// values for an in-memory image such as a preview blob. On any error
// (non-image, missing EXIF) it returns nil.
func ExtractEXIFBytes(data []byte) map[string]string {
	if len(data) == 0 {
		return nil
	}
	return decodeEXIF(bytes.NewReader(data))
}

func decodeEXIF(r io.Reader) map[string]string {
	x, err := exiflib.Decode(r)
	if err != nil {
		return nil
	}
	out := make(map[string]string)
	_ = x.Walk(exifWalker{m: out})
	if len(out) == 0 {
		return nil
	}
	return out
}

type exifWalker struct{ m map[string]string }

func (w exifWalker) Walk(name exiflib.FieldName, tag *tiff.Tag) error {
	w.m[string(name)] = tag.String()
	return nil
}
