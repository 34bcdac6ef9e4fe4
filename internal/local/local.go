// Package local reads module content from the local filesystem.
package local

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/manifest"
)

// DefaultIgnores are never read or watched.
var DefaultIgnores = []string{
	"**/.git/**",
	"**/.DS_Store",
	"**/*.swp",
	"**/*~",
}

// ReadDir returns every regular file under root keyed by its slash separated
// path relative to root. Files named like a manifest are skipped since the
// manifest is always generated.
func ReadDir(root string, ignore []string) (map[string][]byte, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("could not stat '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", root)
	}
	if err = validatePatterns(ignore); err != nil {
		return nil, err
	}
	ignores := append(append([]string{}, DefaultIgnores...), ignore...)

	files := make(map[string][]byte)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if isIgnored(ignores, rel) || isIgnored(ignores, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || isIgnored(ignores, rel) {
			return nil
		}
		if path.Base(rel) == manifest.Filename {
			logging.Warnf("Skipping %s: the name is reserved for the generated manifest", rel)
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("could not read '%s': %w", p, err)
		}
		files[rel] = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read directory '%s': %w", root, err)
	}
	logging.Debugf("Read %d files from %s", len(files), root)
	return files, nil
}

func isIgnored(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid ignore pattern '%s'", pattern)
		}
	}
	return nil
}
