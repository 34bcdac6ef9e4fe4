package local

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/torfstack/gcff/internal/logging"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher reports settled changes below a directory. Events arriving within
// the debounce window are coalesced into one callback.
type Watcher struct {
	watcher  *fsnotify.Watcher
	RootPath string
	ignores  []string
	debounce time.Duration
}

func NewWatcher(rootPath string, ignore []string, debounce time.Duration) (*Watcher, error) {
	if err := validatePatterns(ignore); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve '%s': %w", rootPath, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:  watcher,
		RootPath: root,
		ignores:  append(append([]string{}, DefaultIgnores...), ignore...),
		debounce: debounce,
	}

	// NOTE: fsnotify does not recursively watch subdirectories
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(root, path); rel != "." {
			rel = filepath.ToSlash(rel)
			if isIgnored(w.ignores, rel) || isIgnored(w.ignores, rel+"/") {
				return filepath.SkipDir
			}
		}
		return w.addDir(path)
	})
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("add-dir: could not stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil
	}

	if err = w.watcher.Add(path); err != nil {
		return fmt.Errorf("add-dir: could not add directory to watcher: %w", err)
	}
	logging.Debugf("Added directory to watcher: %s", path)
	return nil
}

func (w *Watcher) Close() {
	if err := w.watcher.Close(); err != nil {
		logging.Warnf("Error closing watcher: %s", err)
	}
}

// Run blocks until ctx is done, calling onChange with the sorted relative
// paths that changed once the directory has been quiet for the debounce
// period. Callback errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string) error) error {
	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			rel, err := filepath.Rel(w.RootPath, event.Name)
			if err != nil || rel == "." || rel == ".." {
				continue
			}
			rel = filepath.ToSlash(rel)
			if isIgnored(w.ignores, rel) || isIgnored(w.ignores, rel+"/") {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err = w.addDir(event.Name); err != nil {
						return err
					}
				}
			}

			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			logging.Debugf("Detected %d changed paths", len(changed))
			if err := onChange(ctx, changed); err != nil {
				logging.Error("Could not handle change", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logging.Warnf("FSNotify Error: %v", err)
		}
	}
}
