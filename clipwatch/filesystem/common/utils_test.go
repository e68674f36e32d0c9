package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathUtils_CanonicalKeySymlink(t *testing.T) {
	pu := NewPathUtils()
	dir := t.TempDir()

	target := filepath.Join(dir, "piece.clip")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(dir, "alias.clip")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	assert.Equal(t, pu.CanonicalKey(target), pu.CanonicalKey(link))
	assert.Equal(t, pu.CanonicalKey(target), pu.CanonicalKey(filepath.Join(dir, "sub", "..", "piece.clip")))
}

func TestPathUtils_CanonicalKeyFallback(t *testing.T) {
	pu := NewPathUtils()
	missing := filepath.Join(t.TempDir(), "gone", "..", "missing.clip")

	key := pu.CanonicalKey(missing)
	assert.Equal(t, pu.NormalizePath(missing), key)
	assert.NotContains(t, key, "..")
}

func TestPathUtils_SplitAndExtension(t *testing.T) {
	pu := NewPathUtils()

	dir, name, ext := pu.SplitPath(filepath.Join("art", "cat.sketch.clip"))
	assert.Equal(t, "art", dir)
	assert.Equal(t, "cat.sketch", name)
	assert.Equal(t, ".clip", ext)

	assert.True(t, pu.HasExtension("a/B.CLIP", ".clip"))
	assert.False(t, pu.HasExtension("a/b.clip.bak", ".clip"))
	assert.False(t, pu.HasExtension("a/clip", ".clip"))
}

func TestPathUtils_IsSubpath(t *testing.T) {
	pu := NewPathUtils()

	assert.True(t, pu.IsSubpath("/art", "/art/2024/a.clip"))
	assert.False(t, pu.IsSubpath("/art", "/art"))
	assert.False(t, pu.IsSubpath("/art", "/other/a.clip"))
	assert.Error(t, pu.ValidatePath(""))
	assert.Error(t, pu.ValidatePath("a\x00b"))
}
