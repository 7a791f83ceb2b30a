// Package scanner turns command-line paths into the ordered list of files a
// run will process.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the video containers picked up from directories.
var DefaultExtensions = []string{
	".mkv", ".mp4", ".avi", ".m4v", ".ts", ".wmv", ".mov", ".m2ts", ".webm",
	".mpg", ".mpeg", ".flv", ".ogm",
}

// Options controls directory traversal.
type Options struct {
	Recursive  bool
	Extensions []string
}

// Collect expands files and directories into a sorted, duplicate-free list.
// Explicit files are always kept; directory entries are filtered by
// extension and hidden names are skipped. Unreadable arguments are reported
// in the returned error while the remaining paths are still collected.
func Collect(paths []string, opts Options) ([]string, error) {
	exts := extensionSet(opts.Extensions)
	seen := make(map[string]bool)
	var files []string
	var errs []error

	add := func(path string) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("unable to access %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, fmt.Errorf("unable to read %s: %w", path, err))
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && !opts.Recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !MatchesExtension(path, exts) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("error walking %s: %w", root, err))
		}
	}

	return files, errors.Join(errs...)
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// MatchesExtension reports whether path has one of the given extensions.
func MatchesExtension(path string, exts map[string]bool) bool {
	return exts[strings.ToLower(filepath.Ext(path))]
}

// ExtensionMatcher returns a predicate for the configured extensions.
func ExtensionMatcher(exts []string) func(string) bool {
	set := extensionSet(exts)
	return func(path string) bool {
		return MatchesExtension(path, set)
	}
}
