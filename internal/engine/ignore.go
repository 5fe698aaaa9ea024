package engine

import (
	gopath "path"
	"path/filepath"
	"strings"

	"github.com/commitlens/internal/pathutil"
)

// GlobIgnore excludes paths matching a set of glob patterns. A pattern
// ending in "/" excludes the whole directory subtree; bare glob patterns
// match against both the full path and the base name, so "*.lock" excludes
// lock files at any depth.
type GlobIgnore struct {
	patterns []string
}

// NewGlobIgnore builds a predicate from the given patterns. Blank patterns
// are dropped.
func NewGlobIgnore(patterns []string) *GlobIgnore {
	g := &GlobIgnore{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g.patterns = append(g.patterns, pathutil.Normalize(p))
	}
	return g
}

// ShouldExclude reports whether path matches any ignore pattern.
func (g *GlobIgnore) ShouldExclude(path string) bool {
	p := pathutil.Normalize(path)

	for _, pattern := range g.patterns {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(p, pattern) || strings.Contains(p, "/"+pattern) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, p); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, gopath.Base(p)); ok {
				return true
			}
		}
	}
	return false
}
