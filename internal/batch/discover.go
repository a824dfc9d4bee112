// Package batch compiles query files for offline evaluation.
//
// A query file holds one CQL query per line. Blank lines and lines starting
// with # are skipped. Run compiles items concurrently and returns one
// outcome per item, in input order; a bad query is reported in its outcome
// and never stops the batch.
package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns deduplicated absolute paths of regular files matching any
// of the glob patterns. Patterns may use ** to match across directories.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			return nil, err
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				result = append(result, abs)
			}
		}
	}

	return result, nil
}

// WatchDirs returns the directories to watch so that files created later
// under the patterns are noticed: the static prefix of each pattern, before
// its first glob metacharacter.
func WatchDirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, pattern := range patterns {
		if abs, err := absPattern(pattern); err == nil {
			pattern = abs
		}
		dir := staticPrefix(pattern)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// Matches reports whether path matches any of the patterns.
func Matches(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if abs, err := absPattern(pattern); err == nil {
			pattern = abs
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

func absPattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return pattern, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, pattern), nil
}

// staticPrefix returns the longest directory path before the first glob character.
func staticPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?[{"); i >= 0 {
		return filepath.Dir(pattern[:i])
	}
	// A literal path; watch its directory.
	return filepath.Dir(pattern)
}
