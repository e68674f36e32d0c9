package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Windows extended-length path prefix returned by canonicalization
const extendedPathPrefix = `\\?\`

// PathUtils provides path manipulation utilities used across filesystem packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a file path for cross-platform compatibility
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// CanonicalKey resolves symlinks and relative segments so aliases of one file
// map to the same string. If resolution fails the normalized raw path is
// used. The extended-length prefix is stripped and the key is case folded on
// Windows.
func (pu *PathUtils) CanonicalKey(path string) string {
	key := pu.NormalizePath(path)
	if resolved, err := filepath.EvalSymlinks(key); err == nil {
		key = resolved
	}

	key = strings.TrimPrefix(key, extendedPathPrefix)
	if runtime.GOOS == "windows" {
		key = strings.ToLower(key)
	}
	return key
}

// IsSubpath checks if child is a subpath of parent
func (pu *PathUtils) IsSubpath(parent, child string) bool {
	rel, err := pu.GetRelativePath(parent, child)
	if err != nil {
		return false
	}

	return !strings.HasPrefix(rel, "..") && rel != "."
}

// GetRelativePath returns the relative path from base to target
func (pu *PathUtils) GetRelativePath(base, target string) (string, error) {
	base = pu.NormalizePath(base)
	target = pu.NormalizePath(target)

	return filepath.Rel(base, target)
}

// SplitPath splits a path into directory and filename components
func (pu *PathUtils) SplitPath(path string) (dir, name, ext string) {
	dir = filepath.Dir(path)
	name = filepath.Base(path)
	ext = filepath.Ext(name)

	if ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	return dir, name, ext
}

// HasExtension reports whether path ends in ext, ignoring case
func (pu *PathUtils) HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

// ValidatePath validates that a path is safe and accessible
func (pu *PathUtils) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null character")
	}

	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}

	return nil
}

// IsDir reports whether path exists and is a directory
func (pu *PathUtils) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
