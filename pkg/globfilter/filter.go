// Package globfilter filters file operands against include and exclude
// glob patterns. Operands are explicit paths, never discovered by
// walking, so filtering only decides which named files are searched.
package globfilter

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter holds the include and exclude pattern sets for one run.
type Filter struct {
	include []string
	exclude []string
}

// New builds a filter. With no include patterns every operand passes
// unless excluded.
func New(include, exclude []string) *Filter {
	return &Filter{include: include, exclude: exclude}
}

// Empty reports whether the filter can never reject an operand.
func (f *Filter) Empty() bool {
	return len(f.include) == 0 && len(f.exclude) == 0
}

// Keep reports whether the operand should be searched. Exclusion wins
// over inclusion. Patterns are tried against the full path and against
// its base name, so "*.go" matches "src/main.go".
func (f *Filter) Keep(path string) bool {
	if matchAny(f.exclude, path) {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	return matchAny(f.include, path)
}

func matchAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		// A bad pattern never matches; it must not break the run.
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
