// Package extracttest builds synthetic host project files for tests.
package extracttest

import (
	"bytes"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"
)

// Table describes one table of a synthetic store. A nil Row leaves the table
// empty with a single column.
type Table struct {
	Name string
	Row  []any
}

// PNG encodes a w x h gradient image
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// Store creates a SQLite database holding tables and returns its bytes
func Store(t testing.TB, tables ...Table) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("libsql", "file:"+path)
	require.NoError(t, err)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode=DELETE").Scan(&mode))

	for _, table := range tables {
		cols := len(table.Row)
		if cols == 0 {
			cols = 1
		}
		names := make([]string, cols)
		marks := make([]string, cols)
		for i := range names {
			names[i] = fmt.Sprintf("c%d", i)
			marks[i] = "?"
		}

		_, err := db.Exec(fmt.Sprintf("CREATE TABLE %q (%s)", table.Name, strings.Join(names, ", ")))
		require.NoError(t, err)

		if table.Row != nil {
			_, err = db.Exec(fmt.Sprintf("INSERT INTO %q VALUES (%s)", table.Name, strings.Join(marks, ", ")), table.Row...)
			require.NoError(t, err)
		}
	}
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// Clip wraps a store in a host container: the host magic, prefix filler
// bytes and then the store as the trailing segment.
func Clip(prefix int, store []byte) []byte {
	out := make([]byte, 0, 8+prefix+len(store))
	out = append(out, "CSFCHUNK"...)
	out = append(out, bytes.Repeat([]byte{0xA5}, prefix)...)
	return append(out, store...)
}

// WriteFile writes data to dir/name and returns the path
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// PreviewClip returns a host file whose CanvasPreview table holds a w x h PNG
func PreviewClip(t testing.TB, w, h int) []byte {
	t.Helper()
	return Clip(256, Store(t, Table{Name: "CanvasPreview", Row: []any{int64(1), PNG(t, w, h)}}))
}
