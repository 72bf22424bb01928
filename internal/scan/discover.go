// Package scan discovers source files, extracts their schemas in parallel
// and merges the results into one contract.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Options control discovery and extraction.
type Options struct {
	// Extensions selects files inside directories, e.g. ".py".
	Extensions []string
	// ExcludeDirs are directory base names never descended into.
	ExcludeDirs []string
	// Workers bounds concurrent extractions. Zero or less means one per CPU.
	Workers int
	// Strict aborts the run on the first parse error.
	Strict bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Extensions:  []string{".py"},
		ExcludeDirs: []string{".git", ".venv", "venv", "__pycache__", "node_modules", ".tox"},
	}
}

func (o Options) matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range o.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func (o Options) excluded(name string) bool {
	return slices.Contains(o.ExcludeDirs, name)
}

// Discover expands paths into the files to scan. Files named explicitly are
// taken as-is, once per occurrence, so a file given twice contributes its
// references twice. Directories are walked in lexical order for files with
// a configured extension. Paths that do not exist or cannot be read are
// returned in missing instead of failing the call.
func Discover(paths []string, opts Options) (files, missing []string, err error) {
	for _, p := range paths {
		info, statErr := os.Stat(p)
		if statErr != nil {
			missing = append(missing, p)
			continue
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}
		walkErr := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == p {
					missing = append(missing, p)
					return filepath.SkipDir
				}
				missing = append(missing, path)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != p && opts.excluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && opts.matches(path) {
				files = append(files, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, fmt.Errorf("failed to walk %s: %w", p, walkErr)
		}
	}
	return files, missing, nil
}
