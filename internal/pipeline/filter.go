package pipeline

import (
	"path/filepath"
	"strings"
)

// Matcher reports whether a file name matches any ignore pattern.
type Matcher struct {
	patterns []string
}

func NewMatcher(ignoreList []string) *Matcher {
	patterns := make([]string, 0, len(ignoreList))
	for _, p := range ignoreList {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Matcher{patterns: patterns}
}

func (m *Matcher) ShouldIgnore(path string) bool {
	if m == nil {
		return false
	}

	name := filepath.Base(path)
	for _, pattern := range m.patterns {
		matched, err := filepath.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}

	return false
}
