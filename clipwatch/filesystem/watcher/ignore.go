package watcher

import (
	"path/filepath"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreMatcher applies gitignore-style patterns to paths relative to the
// watched roots.
type IgnoreMatcher struct {
	matcher   *ignore.GitIgnore
	roots     []string
	pathUtils *common.PathUtils
}

// NewIgnoreMatcher compiles patterns; nil is returned when there are none.
func NewIgnoreMatcher(roots []string, patterns []string) *IgnoreMatcher {
	if len(patterns) == 0 {
		return nil
	}

	pu := common.NewPathUtils()
	normalized := make([]string, 0, len(roots))
	for _, root := range roots {
		normalized = append(normalized, pu.NormalizePath(root))
	}

	return &IgnoreMatcher{
		matcher:   ignore.CompileIgnoreLines(patterns...),
		roots:     normalized,
		pathUtils: pu,
	}
}

// Ignored reports whether path matches a pattern under any watched root
func (m *IgnoreMatcher) Ignored(path string) bool {
	if m == nil {
		return false
	}

	for _, root := range m.roots {
		if !m.pathUtils.IsSubpath(root, path) {
			continue
		}
		rel, err := m.pathUtils.GetRelativePath(root, path)
		if err != nil {
			continue
		}
		if m.matcher.MatchesPath(filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}
