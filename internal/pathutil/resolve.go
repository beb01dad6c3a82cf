// Package pathutil resolves user-supplied directory paths from flags and
// the config file.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve expands a leading ~, makes path absolute and resolves symlinks in
// the part of the path that already exists. Components that do not exist
// yet are appended unchanged. Empty input stays empty.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}

	// Walk up to the deepest existing ancestor.
	current := absPath
	var remainder []string
	for {
		if _, err := os.Stat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				resolved = current
			}
			for i := len(remainder) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, remainder[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absPath, nil
		}
		remainder = append(remainder, filepath.Base(current))
		current = parent
	}
}

// ResolveAll applies Resolve to each non-empty pointer target in place and
// stops at the first error.
func ResolveAll(paths ...*string) error {
	for _, p := range paths {
		if p == nil || *p == "" {
			continue
		}
		resolved, err := Resolve(*p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}
