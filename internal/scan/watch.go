package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces bursts of file events into one rescan.
const debounceInterval = 100 * time.Millisecond

// Watch rescans paths whenever a matching file is written, created,
// removed or renamed, and passes each outcome to onChange. Rescans never
// overlap. Watch blocks until ctx is done.
func (s *Scanner) Watch(ctx context.Context, paths []string, onChange func(*Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	explicit := make(map[string]bool)
	for _, p := range paths {
		if err := s.watchPath(watcher, p); err != nil {
			return err
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			explicit[filepath.Clean(p)] = true
		}
	}

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	rescan := func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		files, _, err := Discover(paths, s.opts)
		if err != nil {
			onChange(nil, err)
			return
		}
		onChange(s.Run(ctx, files))
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories must be watched explicitly.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.watchPath(watcher, event.Name); err != nil {
						s.logger.Warn("failed to watch directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !s.opts.matches(event.Name) && !explicit[filepath.Clean(event.Name)] {
				continue
			}

			s.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, rescan)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

// watchPath adds a directory tree, or the parent directory of a file.
func (s *Scanner) watchPath(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && s.opts.excluded(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
